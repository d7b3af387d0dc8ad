// Package metrics collects the ambient Prometheus metrics the ingestion
// pipeline emits: per-stage item counts, HTTP retry counts, and
// rate-limiter wait time (spec.md's ambient observability, not a
// spec.md-named feature). Grounded on the teacher's sibling pack repo
// metrics.Metrics shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	StageItemsTotal   *prometheus.CounterVec
	HTTPRetriesTotal  *prometheus.CounterVec
	RateLimiterWaitMS *prometheus.HistogramVec
}

// New creates a Metrics instance registered against the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// letting tests use a private prometheus.NewRegistry() to avoid collisions.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keirin_ingest_stage_items_total",
				Help: "Items processed per stage, labeled by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		HTTPRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keirin_ingest_http_retries_total",
				Help: "HTTP retry attempts issued per endpoint class",
			},
			[]string{"endpoint_class"},
		),
		RateLimiterWaitMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keirin_ingest_rate_limiter_wait_ms",
				Help:    "Time spent waiting on the rate limiter per endpoint class",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"endpoint_class"},
		),
	}
	registerer.MustRegister(m.StageItemsTotal, m.HTTPRetriesTotal, m.RateLimiterWaitMS)
	return m
}
