// Package metrics provides Prometheus metrics for the gateway router,
// following the promauto registration style used throughout the teacher
// codebase (SPEC_FULL.md §2). Collectors are package-level vars registered
// once at import time; callers record observations from internal/router,
// internal/pricing, and internal/tokenizer rather than touching prometheus
// directly. cmd/gatewayrouter serves the registry on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gatewayrouter"

// latencyBuckets covers the router's own decision latency, which is
// CPU-bound and sub-millisecond to low-millisecond (SPEC_FULL.md §5), not
// the much larger buckets an upstream LLM call would need.
var latencyBuckets = []float64{
	0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

var (
	// RoutingDecisions counts routing decisions by chosen model and whether
	// the fallback path was taken.
	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_decisions_total",
			Help:      "Total routing decisions by model and fallback status",
		},
		[]string{"model", "task", "fallback"},
	)

	// RoutingErrors counts Route() failures by error kind.
	RoutingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_errors_total",
			Help:      "Total routing failures by error kind",
		},
		[]string{"kind"},
	)

	// RoutingDecisionLatency tracks how long Route() itself takes to decide
	// (not the latency of the routed call).
	RoutingDecisionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routing_decision_latency_seconds",
			Help:      "Time taken by Route() to select a model",
			Buckets:   latencyBuckets,
		},
	)

	// BudgetRemaining reports the current budget headroom, or -1 when no
	// budget is configured.
	BudgetRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "budget_remaining_usd",
			Help:      "Remaining budget in USD, or -1 if unbounded",
		},
	)

	// SpendTotal tracks cumulative recorded spend by model.
	SpendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spend_total_usd",
			Help:      "Cumulative recorded spend in USD by model",
		},
		[]string{"model"},
	)

	// ObservedLatency records caller-reported latency samples fed into
	// internal/router's LatencyHistory.
	ObservedLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "observed_latency_ms",
			Help:      "Observed per-request latency samples, in milliseconds",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2000, 5000},
		},
		[]string{"model"},
	)

	// TokenizerDegraded counts requests where token counting fell back to
	// the character-estimate heuristic instead of a real tokenizer
	// (spec.md §7, TokenizerDegraded).
	TokenizerDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokenizer_degraded_total",
			Help:      "Token counts that fell back to a heuristic instead of a real tokenizer",
		},
		[]string{"model", "method"},
	)
)
