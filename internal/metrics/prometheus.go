package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// ScoringCount counts originality scoring calls by outcome
	ScoringCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "originality_scoring_total",
			Help: "Total number of originality scoring calls",
		},
		[]string{"outcome"},
	)

	// ScoringDuration measures a single scoring call
	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "originality_scoring_duration_seconds",
			Help:    "Originality scoring duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// PriorFetchFailures counts prior submissions skipped because they could not be fetched or parsed
	PriorFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "originality_prior_fetch_failures_total",
			Help: "Prior submissions skipped during scoring because their document could not be fetched",
		},
	)
)

// InitPrometheus registers all collectors with the default registry
func InitPrometheus() {
	prometheus.MustRegister(RequestCount)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ScoringCount)
	prometheus.MustRegister(ScoringDuration)
	prometheus.MustRegister(PriorFetchFailures)
}

// MetricsHandler returns Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
