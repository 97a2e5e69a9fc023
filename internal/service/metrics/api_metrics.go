package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API holds per-endpoint metrics for the correlation API.
type API struct {
	Latency     *prometheus.HistogramVec
	Errors      *prometheus.CounterVec
	CacheLookup *prometheus.CounterVec
}

func NewAPI(reg prometheus.Registerer) *API {
	f := promauto.With(reg)
	return &API{
		Latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fincorr",
				Subsystem: "api",
				Name:      "latency_seconds",
				Help:      "Latency of correlation endpoints",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fincorr",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Errors by endpoint and kind",
			},
			[]string{"endpoint", "kind"},
		),
		CacheLookup: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fincorr",
				Subsystem: "api",
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"endpoint", "result"},
		),
	}
}
