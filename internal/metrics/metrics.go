package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts dispatched requests by operation, verb and status class.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flin_client_requests_total",
			Help: "Total number of requests dispatched by the SDK",
		},
		[]string{"operation", "method", "status"},
	)
	// RequestDuration is the round-trip latency of dispatched requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flin_client_request_duration_seconds",
			Help:    "Request round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "method"},
	)
	// ValidationErrorsTotal counts client-side validation failures.
	ValidationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flin_client_validation_errors_total",
			Help: "Total number of client-side validation failures",
		},
		[]string{"op", "kind"},
	)
	// CacheLookupsTotal counts local response cache lookups by result (hit|miss).
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flin_client_cache_lookups_total",
			Help: "Total number of local response cache lookups",
		},
		[]string{"result"},
	)
	// SessionInvalidationsTotal counts responses that invalidated the session.
	SessionInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flin_client_session_invalidations_total",
			Help: "Total number of responses carrying a session-invalidating error code",
		},
	)
)

// StatusClass collapses an HTTP status into a low-cardinality label.
// Zero means no response was received.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "network"
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// ObserveRequest records one completed request
func ObserveRequest(operation, method string, status int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(operation, method, StatusClass(status)).Inc()
	RequestDuration.WithLabelValues(operation, method).Observe(elapsed.Seconds())
}

// CacheHit records a cache lookup result
func CacheHit(hit bool) {
	if hit {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()
}
