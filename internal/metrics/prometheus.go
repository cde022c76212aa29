// Package metrics provides Prometheus collectors for the adaptive model
// router: request outcomes, per-attempt failures, circuit breaker trips,
// and registry refresh health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "modelmux"

var (
	// RouteRequests counts routed requests by capability and outcome.
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Total routed requests by capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	// ExecutionAttempts counts individual model attempts by result.
	ExecutionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_attempts_total",
			Help:      "Model execution attempts by provider, model and result",
		},
		[]string{"provider", "model", "result"},
	)

	// AttemptFailuresByClass counts failures by breaker classification.
	AttemptFailuresByClass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempt_failures_total",
			Help:      "Model execution failures by classification",
		},
		[]string{"provider", "model", "class"},
	)

	// BreakerDisables counts circuit breaker disable transitions.
	BreakerDisables = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_disables_total",
			Help:      "Circuit breaker disable transitions by reason",
		},
		[]string{"provider", "model", "reason"},
	)

	// SelectionCandidates observes how many candidates survived filtering.
	SelectionCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_candidates",
			Help:      "Number of candidates entering selection",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
		[]string{"capability"},
	)

	// RegistryModels tracks current registry sizes per family.
	RegistryModels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_models",
			Help:      "Models currently held in the registry per family",
		},
		[]string{"family"},
	)

	// RefreshDuration observes benchmark refresh cycles.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "benchmark_refresh_seconds",
			Help:      "Duration of benchmark refresh cycles in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RefreshFailures counts failed benchmark refresh cycles.
	RefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "benchmark_refresh_failures_total",
			Help:      "Benchmark refresh cycles that returned an error",
		},
	)
)
