package correlation

import (
	"math"
	"testing"
	"time"

	"FinCorr/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func series(closes ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Close: c}
	}
	return out
}

func ramp(n int, start, step float64) []models.PricePoint {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return series(closes...)
}

func TestMinPoints(t *testing.T) {
	cases := map[int]int{10: 7, 20: 14, 60: 42, 120: 84, 1: 1, 3: 3, 11: 8, 0: 0}
	for w, want := range cases {
		if got := MinPoints(w); got != want {
			t.Fatalf("MinPoints(%d) = %d, want %d", w, got, want)
		}
	}
}

func TestWindowedIdenticalSeriesIsOne(t *testing.T) {
	s := series(10, 11, 9, 12, 13, 12, 14, 15, 13, 16)
	c := Windowed(s, s, 10)
	if !c.Defined || math.Abs(c.Value-1) > 1e-12 {
		t.Fatalf("expected 1.0, got %+v", c)
	}
}

func TestWindowedInverseSeriesIsMinusOne(t *testing.T) {
	a := ramp(20, 100, 1)
	b := ramp(20, 50, -0.5)
	c := Windowed(a, b, 20)
	if !c.Defined || math.Abs(c.Value+1) > 1e-12 {
		t.Fatalf("expected -1.0, got %+v", c)
	}
}

func TestWindowedConstantSeriesIsUndefined(t *testing.T) {
	a := ramp(10, 100, 0)
	b := ramp(10, 100, 1)
	if c := Windowed(a, b, 10); c.Defined {
		t.Fatalf("expected undefined for zero variance, got %+v", c)
	}
}

func TestWindowedInexactConstantIsUndefined(t *testing.T) {
	for _, v := range []float64{33.35, 0.1, 12.3, 47.85, 101.7} {
		a := ramp(120, v, 0)
		closes := make([]float64, 120)
		for i := range closes {
			closes[i] = 100 + float64(i%7)
		}
		b := series(closes...)
		for _, w := range []int{120, 20, 10} {
			if c := Windowed(a, b, w); c.Defined {
				t.Fatalf("constant %v window %d: expected undefined, got %+v", v, w, c)
			}
			if c := Windowed(b, a, w); c.Defined {
				t.Fatalf("constant %v window %d reversed: expected undefined, got %+v", v, w, c)
			}
		}
	}
}

func TestWindowedShortSeriesIsUndefined(t *testing.T) {
	// 6 points < ceil(0.7*10)
	a := ramp(6, 1, 1)
	b := ramp(30, 1, 1)
	if c := Windowed(a, b, 10); c.Defined {
		t.Fatalf("expected undefined for short series, got %+v", c)
	}
}

func TestWindowedInsufficientOverlapIsUndefined(t *testing.T) {
	a := ramp(10, 1, 1)
	// same length, but shifted 4 days: only 6 shared dates
	b := make([]models.PricePoint, 10)
	for i := range b {
		b[i] = models.PricePoint{Date: day0.AddDate(0, 0, i+4), Close: float64(i + 1)}
	}
	if c := Windowed(a, b, 10); c.Defined {
		t.Fatalf("expected undefined for 6 overlapping dates, got %+v", c)
	}

	// shifted 3 days: 7 shared dates is enough
	for i := range b {
		b[i].Date = day0.AddDate(0, 0, i+3)
	}
	if c := Windowed(a, b, 10); !c.Defined {
		t.Fatalf("expected defined for 7 overlapping dates")
	}
}

func TestWindowedUsesOnlyTrailingWindow(t *testing.T) {
	// anti-correlated history, perfectly correlated last 10 days
	a := append(ramp(20, 100, -1), ramp(10, 200, 1)...)
	b := append(ramp(20, 100, 1), ramp(10, 300, 2)...)
	for i := range a {
		a[i].Date = day0.AddDate(0, 0, i)
		b[i].Date = day0.AddDate(0, 0, i)
	}
	c := Windowed(a, b, 10)
	if !c.Defined || math.Abs(c.Value-1) > 1e-12 {
		t.Fatalf("expected 1.0 over last 10 days, got %+v", c)
	}
}

func TestAlignInnerJoin(t *testing.T) {
	a := series(1, 2, 3, 4)
	b := []models.PricePoint{
		{Date: day0.AddDate(0, 0, 1), Close: 20},
		{Date: day0.AddDate(0, 0, 3), Close: 40},
		{Date: day0.AddDate(0, 0, 9), Close: 90},
	}
	xs, ys := Align(a, b)
	if len(xs) != 2 || xs[0] != 2 || xs[1] != 4 || ys[0] != 20 || ys[1] != 40 {
		t.Fatalf("unexpected join xs=%v ys=%v", xs, ys)
	}
}

func TestPearsonKnownValue(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 5, 4, 5}
	c := Pearson(xs, ys)
	// r = 6 / sqrt(10 * 6)
	want := 6 / math.Sqrt(60)
	if !c.Defined || math.Abs(c.Value-want) > 1e-12 {
		t.Fatalf("got %+v, want %v", c, want)
	}
	if c := Pearson([]float64{1}, []float64{1}); c.Defined {
		t.Fatalf("single pair must be undefined")
	}
}

func TestWindows(t *testing.T) {
	s := ramp(30, 10, 1)
	ws := Windows(s, s, []int{120, 20, 10})
	if len(ws) != 3 || ws[0].Days != 120 || ws[0].Coefficient.Defined {
		t.Fatalf("120-day window over 30 points must be undefined: %+v", ws)
	}
	if !ws[1].Coefficient.Defined || !ws[2].Coefficient.Defined {
		t.Fatalf("short windows must be defined: %+v", ws)
	}
}
