// Package metrics exposes Prometheus collectors for the fact-check
// invocation layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal counts individual model attempts by model and outcome
	// (success, transport_error, protocol_error).
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkmate_attempts_total",
			Help: "Model attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	// CascadeDuration observes end-to-end cascade latency per operation class.
	CascadeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkmate_cascade_duration_seconds",
			Help:    "Fact-check cascade duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"class"},
	)

	// CascadesExhausted counts terminal cascade failures per operation class.
	CascadesExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkmate_cascades_exhausted_total",
			Help: "Cascades that failed across every candidate model",
		},
		[]string{"class"},
	)

	// BreakerState tracks circuit breaker state per operation class
	// (0=closed, 1=open, 2=half-open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "checkmate_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"class"},
	)

	// BreakerRejections counts fail-fast rejections per operation class.
	BreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkmate_breaker_rejections_total",
			Help: "Requests rejected without a model call because the breaker was open",
		},
		[]string{"class"},
	)
)
