// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, authentication and content.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

var (
	// HTTP metrics - track request volume and latency
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Auth metrics - login outcomes, including throttled attempts
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by method (password, github) and result (success, failure, throttled)",
		},
		[]string{"method", "result"},
	)

	// Content metrics
	BlogViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blog",
			Name:      "views_total",
			Help:      "Total number of blog post detail views",
		},
	)

	ContactMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "messages_total",
			Help:      "Total number of contact form submissions stored",
		},
	)
)

// Login results.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultThrottled = "throttled"
)

// ObserveLogin records the outcome of a login attempt.
func ObserveLogin(method, result string) {
	LoginAttemptsTotal.WithLabelValues(method, result).Inc()
}
