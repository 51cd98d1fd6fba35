// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicri_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicri_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// WorkflowOperations counts workflow operations by name and outcome
	// ("ok" or the error class).
	WorkflowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicri_workflow_operations_total",
			Help: "Total number of workflow operations",
		},
		[]string{"operation", "outcome"},
	)

	// CaseTransitions counts case state changes by origin and target state.
	CaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicri_case_transitions_total",
			Help: "Total number of case state transitions",
		},
		[]string{"from", "to"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicri_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)
)
