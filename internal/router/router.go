// Package router implements the Smart Router: it filters the registry
// against a request, scores survivors along a weighted multi-objective
// function, selects the winner, and emits a structured RoutingDecision.
// See SPEC_FULL.md §4.4.
package router

import (
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/normanhq/gatewayrouter/internal/metrics"
	"github.com/normanhq/gatewayrouter/internal/pricing"
	"github.com/normanhq/gatewayrouter/internal/registry"
	"github.com/normanhq/gatewayrouter/pkg/gwerrors"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// Scoring weights, per the table in SPEC_FULL.md §4.4.
const (
	qualityWeight  = 40.0
	costWeight     = 30.0
	latencyWeight  = 20.0
	localityWeight = 10.0

	// latencyDivisor converts milliseconds into the 0-100ms-per-point scale
	// the latency component is scored on.
	latencyDivisor = 100.0
	// costDivisor converts a dollar cost into the score-point scale the
	// cost component is penalized on.
	costDivisor = 100.0
)

// Router is the orchestrating component described in SPEC_FULL.md §4.4. It
// holds no suspension points: Route is synchronous, CPU-bound, and returns
// promptly (SPEC_FULL.md §5).
type Router struct {
	reg        *registry.Registry
	accountant *pricing.Accountant
	config     atomic.Pointer[types.RouterConfig]
	latency    *latencyHistory
}

// New constructs a Router. It fails fast (NoFallback, per spec.md §7) if
// the configured fallback model does not exist in the registry.
func New(reg *registry.Registry, accountant *pricing.Accountant, cfg types.RouterConfig) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !reg.Has(cfg.FallbackModelID) {
		return nil, gwerrors.NewNoFallback(cfg.FallbackModelID, "configured fallback model is not present in the registry")
	}

	r := &Router{
		reg:        reg,
		accountant: accountant,
		latency:    newLatencyHistory(),
	}
	r.config.Store(&cfg)
	return r, nil
}

// SetConfig atomically replaces the router's policy. Readers observe
// either the old or new config in its entirety, never a torn read
// (SPEC_FULL.md §5).
func (r *Router) SetConfig(cfg types.RouterConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !r.reg.Has(cfg.FallbackModelID) {
		return gwerrors.NewNoFallback(cfg.FallbackModelID, "configured fallback model is not present in the registry")
	}
	r.config.Store(&cfg)
	return nil
}

func (r *Router) currentConfig() types.RouterConfig {
	return *r.config.Load()
}

// RouteOptions carries the optional parameters to Route, mirroring the
// caller-facing route() signature in SPEC_FULL.md §6.
type RouteOptions struct {
	ExpectedOutputTokens int      // default 500 when zero
	RequireLocal         bool
	RequireQuality       *float64 // nil means "use config.min_quality"
	MaxCost              *float64 // nil means "use config.max_cost_usd"; a pointer to 0 is binding
}

// Route selects the best model for task given input_tokens, per the
// filtering pass, scoring table, and fallback semantics in
// SPEC_FULL.md §4.4.
func (r *Router) Route(task types.TaskKind, inputTokens int, opts RouteOptions) (decision types.RoutingDecision, err error) {
	start := time.Now()
	defer func() {
		metrics.RoutingDecisionLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			kind := "unknown"
			if rerr, ok := err.(*gwerrors.RouterError); ok {
				kind = string(rerr.Kind)
			}
			metrics.RoutingErrors.WithLabelValues(kind).Inc()
			return
		}
		metrics.RoutingDecisions.WithLabelValues(decision.ModelID, string(task), fmt.Sprintf("%t", decision.Fallback)).Inc()
	}()

	cfg := r.currentConfig()

	expectedOutput := opts.ExpectedOutputTokens
	if expectedOutput == 0 {
		expectedOutput = 500
	}

	if !task.Valid() || !r.reg.SupportsTask(task) {
		if fb, ok := r.reg.Lookup(cfg.FallbackModelID); !ok || !fb.SupportsTask(task) {
			return types.RoutingDecision{}, gwerrors.NewUnknownTask(task.String(),
				"no registered model (including the fallback) supports this task")
		}
	}

	if !r.anyModelFitsContext(inputTokens, cfg.FallbackModelID) {
		return types.RoutingDecision{}, gwerrors.NewContextOverflow(
			fmt.Sprintf("input_tokens=%d exceeds every model's maximum context, including the fallback", inputTokens))
	}

	candidates := r.filter(task, inputTokens, expectedOutput, opts, cfg)
	if len(candidates) == 0 {
		return r.fallbackDecision(task, inputTokens, expectedOutput, cfg), nil
	}

	best := r.selectBest(candidates, cfg)
	return r.decisionFor(best, task), nil
}

// anyModelFitsContext reports whether at least one registered model
// (including the fallback) can accept inputTokens in its context window.
func (r *Router) anyModelFitsContext(inputTokens int, fallbackID string) bool {
	if fb, ok := r.reg.Lookup(fallbackID); ok && inputTokens <= fb.MaxContext {
		return true
	}
	for _, m := range r.reg.All() {
		if inputTokens <= m.MaxContext {
			return true
		}
	}
	return false
}

// candidate bundles a surviving model with its projected cost and latency
// estimate, carried from the filtering pass into scoring.
type candidate struct {
	model   types.ModelCapability
	cost    types.CostEstimate
	latency float64
}

// filter implements the filtering pass from SPEC_FULL.md §4.4, iterating
// the registry in deterministic (sorted-by-identifier) order.
func (r *Router) filter(task types.TaskKind, inputTokens, expectedOutput int, opts RouteOptions, cfg types.RouterConfig) []candidate {
	effectiveMaxCost := cfg.MaxCostUSD
	if opts.MaxCost != nil {
		effectiveMaxCost = *opts.MaxCost
	}

	minQuality := cfg.MinQualityScore
	if opts.RequireQuality != nil && *opts.RequireQuality > minQuality {
		minQuality = *opts.RequireQuality
	}

	var out []candidate
	for _, model := range r.reg.All() {
		if !model.SupportsTask(task) {
			continue
		}
		if opts.RequireLocal && !model.IsLocal {
			continue
		}
		if inputTokens > model.MaxContext {
			continue
		}

		cost := r.accountant.Estimate(model.ID, inputTokens, expectedOutput)
		if cost.TotalCost > effectiveMaxCost {
			continue
		}

		if model.QualityScore < minQuality {
			continue
		}

		latency := r.latencyEstimate(model)
		out = append(out, candidate{model: model, cost: cost, latency: latency})
	}
	return out
}

// latencyEstimate returns the mean of the most recent up-to-ten observed
// samples for model.ID if any exist, otherwise its declared baseline.
func (r *Router) latencyEstimate(model types.ModelCapability) float64 {
	if est, ok := r.latency.Estimate(model.ID); ok {
		return est
	}
	return float64(model.BaselineLatencyMS)
}

// selectBest scores every candidate and returns the maximum, breaking ties
// by the deterministic iteration order already established by filter
// (sorted by identifier).
func (r *Router) selectBest(candidates []candidate, cfg types.RouterConfig) candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].model.ID < candidates[j].model.ID
	})

	best := candidates[0]
	bestScore := score(best, cfg)
	for _, c := range candidates[1:] {
		if s := score(c, cfg); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// score implements the weighted scoring table from SPEC_FULL.md §4.4.
func score(c candidate, cfg types.RouterConfig) float64 {
	total := c.model.QualityScore * qualityWeight

	if c.cost.TotalCost == 0 {
		total += costWeight
	} else {
		costScore := costWeight - c.cost.TotalCost*costDivisor
		if costScore > 0 {
			total += costScore
		}
	}

	latencyScore := latencyWeight - c.latency/latencyDivisor
	if latencyScore > 0 {
		total += latencyScore
	}

	if cfg.PreferLocal && c.model.IsLocal {
		total += localityWeight
	}

	return total
}

// decisionFor builds the RoutingDecision for a winning candidate.
func (r *Router) decisionFor(best candidate, task types.TaskKind) types.RoutingDecision {
	return types.RoutingDecision{
		ModelID:            best.model.ID,
		Model:              best.model,
		Reason:             reasonString(best.model, best.cost.TotalCost, best.latency, task),
		EstimatedCost:      best.cost.TotalCost,
		EstimatedLatencyMS: int(best.latency),
		RequestID:          uuid.NewString(),
		Fallback:           false,
	}
}

// fallbackDecision builds the unconditional escape-hatch decision returned
// when no candidate survives filtering. Its cost is the fallback's true
// projected cost for this request's actual token counts (not unconditionally
// zero — SPEC_FULL.md §9 flags the original's hardcoded zero as a bug when
// the fallback isn't local).
func (r *Router) fallbackDecision(task types.TaskKind, inputTokens, expectedOutput int, cfg types.RouterConfig) types.RoutingDecision {
	fb, _ := r.reg.Lookup(cfg.FallbackModelID)
	cost := r.accountant.Estimate(fb.ID, inputTokens, expectedOutput)
	latency := r.latencyEstimate(fb)
	if !fb.IsLocal {
		slog.Warn("routing to non-local fallback model; estimated cost is not zero",
			"model", fb.ID, "task", string(task), "estimated_cost", cost.TotalCost)
	}

	return types.RoutingDecision{
		ModelID:            fb.ID,
		Model:              fb,
		Reason:             "no suitable model found, using fallback",
		EstimatedCost:      cost.TotalCost,
		EstimatedLatencyMS: int(latency),
		RequestID:          uuid.NewString(),
		Fallback:           true,
	}
}

// reasonString builds the human-readable reason, per the exact template in
// SPEC_FULL.md §4.4. Not machine-parsed; carries no contract beyond
// readability.
func reasonString(model types.ModelCapability, cost, latency float64, task types.TaskKind) string {
	var costPart string
	if model.IsLocal {
		costPart = "local model (zero cost)"
	} else {
		costPart = fmt.Sprintf("cost: $%.4f", cost)
	}
	return fmt.Sprintf("Selected %s for %s: %s, latency: ~%dms, quality: %.0f%%",
		model.ID, task, costPart, int(latency), model.QualityScore*100)
}

// RecordLatency appends an observed latency sample for modelID to its
// ring buffer, for use in future scoring. Out-of-range samples are
// rejected silently.
func (r *Router) RecordLatency(modelID string, observedMS float64) {
	r.latency.Record(modelID, observedMS)
	metrics.ObservedLatency.WithLabelValues(modelID).Observe(observedMS)
}
