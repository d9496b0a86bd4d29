// Package metrics holds the Prometheus collectors for the service. They are
// registered with the default registry at init and served on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBuckets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Client buckets currently tracked by the rate limiter",
		},
	)

	// SearchTotal counts search requests by terminal outcome: ok,
	// patient_not_found, invalid_input, extraction_failed, lookup_failed,
	// upsert_failed.
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medreview_search_total",
			Help: "Medicine searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medreview_search_stage_duration_seconds",
			Help:    "Latency of each search pipeline stage",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"stage"},
	)

	// LabelLookupTotal separates genuine misses from upstream failures,
	// which the lookup client reports to callers identically.
	LabelLookupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medreview_label_lookup_total",
			Help: "openFDA label lookups by outcome (found, not_found, error)",
		},
		[]string{"outcome"},
	)

	VerdictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medreview_safety_verdict_total",
			Help: "Safety verdicts by result (safe, warning, degraded)",
		},
		[]string{"result"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medreview_upstream_request_duration_seconds",
			Help:    "Latency of calls to external services",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"service", "operation"},
	)

	LabelRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medreview_label_refresh_total",
			Help: "Medicines processed by the label refresh job by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBuckets,
		SearchTotal,
		SearchStageDuration,
		LabelLookupTotal,
		VerdictTotal,
		UpstreamDuration,
		LabelRefreshTotal,
	)
}
