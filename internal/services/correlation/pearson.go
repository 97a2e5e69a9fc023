package correlation

import (
	"math"
	"time"

	"FinCorr/internal/domain/models"
)

// SufficiencyRatio is the share of a window that must be present, both per
// series and after the date join, for a coefficient to be defined.
const SufficiencyRatio = 0.7

// MinPoints returns ceil(0.7 * window) without floating-point drift.
func MinPoints(window int) int {
	if window <= 0 {
		return 0
	}
	return (7*window + 9) / 10
}

// Tail returns the last n points of an ascending series.
func Tail(series []models.PricePoint, n int) []models.PricePoint {
	if n <= 0 {
		return nil
	}
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// Align inner-joins two ascending series on date and returns the paired closes
// in date order.
func Align(a, b []models.PricePoint) (xs, ys []float64) {
	byDate := make(map[time.Time]float64, len(b))
	for _, p := range b {
		byDate[models.Day(p.Date)] = p.Close
	}
	xs = make([]float64, 0, min(len(a), len(b)))
	ys = make([]float64, 0, cap(xs))
	for _, p := range a {
		if v, ok := byDate[models.Day(p.Date)]; ok {
			xs = append(xs, p.Close)
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// Pearson computes the sample correlation of xs and ys. It is undefined for
// fewer than two pairs, mismatched lengths, or zero variance on either side.
func Pearson(xs, ys []float64) models.Coefficient {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return models.Undefined
	}
	// the mean of a constant need not equal the constant in floating point,
	// so test the raw values rather than the accumulated variance
	if constant(xs) || constant(ys) {
		return models.Undefined
	}

	var mx, my float64
	for i := 0; i < n; i++ {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Undefined
	}

	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return models.Undefined
	}
	// rounding can push |r| a hair past 1
	return models.DefinedCoefficient(math.Max(-1, math.Min(1, r)))
}

func constant(vs []float64) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}

// Windowed correlates the trailing window of two series. Both the truncated
// series and their date intersection must hold at least MinPoints(window) points.
func Windowed(a, b []models.PricePoint, window int) models.Coefficient {
	need := MinPoints(window)
	ta, tb := Tail(a, window), Tail(b, window)
	if window <= 0 || len(ta) < need || len(tb) < need {
		return models.Undefined
	}

	xs, ys := Align(ta, tb)
	if len(xs) < need {
		return models.Undefined
	}
	return Pearson(xs, ys)
}

// Windows computes Windowed for each window length, in order.
func Windows(a, b []models.PricePoint, windows []int) []models.WindowCoefficient {
	out := make([]models.WindowCoefficient, len(windows))
	for i, w := range windows {
		out[i] = models.WindowCoefficient{Days: w, Coefficient: Windowed(a, b, w)}
	}
	return out
}
