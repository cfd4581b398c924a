// Package gateway composes the Model Registry, Token Analyzer, Cost
// Accountant, and Smart Router into the single facade external callers are
// expected to use. See SPEC_FULL.md §6.
package gateway

import (
	"github.com/normanhq/gatewayrouter/internal/pricing"
	"github.com/normanhq/gatewayrouter/internal/registry"
	"github.com/normanhq/gatewayrouter/internal/router"
	"github.com/normanhq/gatewayrouter/internal/tokenizer"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// Gateway is the caller-facing entry point: route, count_tokens,
// estimate_cost, check_budget, record_cost, set_budget, summary, and
// record_latency all live here, thinly wrapping the four internal
// components (SPEC_FULL.md §6).
type Gateway struct {
	registry   *registry.Registry
	analyzer   *tokenizer.Analyzer
	accountant *pricing.Accountant
	router     *router.Router
}

// Option configures a Gateway at construction time.
type Option func(*gatewayConfig)

type gatewayConfig struct {
	capabilities    []types.ModelCapability
	routerConfig    *types.RouterConfig
	pricingTable    *pricing.Table
	pessimisticCost bool
}

// WithCapabilities overrides the default model catalogue.
func WithCapabilities(caps []types.ModelCapability) Option {
	return func(c *gatewayConfig) { c.capabilities = caps }
}

// WithRouterConfig overrides the default routing policy.
func WithRouterConfig(cfg types.RouterConfig) Option {
	return func(c *gatewayConfig) { c.routerConfig = &cfg }
}

// WithPricingTable overrides the default pricing table.
func WithPricingTable(table *pricing.Table) Option {
	return func(c *gatewayConfig) { c.pricingTable = table }
}

// WithPessimisticBudget enables debit-at-check/credit-back-on-failure
// budget accounting (SPEC_FULL.md §5's option (b)), instead of the default
// additive accounting with documented concurrent slack.
func WithPessimisticBudget() Option {
	return func(c *gatewayConfig) { c.pessimisticCost = true }
}

// New builds a Gateway from explicit options. Most callers should use
// Default() unless they need a custom catalogue or policy.
func New(opts ...Option) (*Gateway, error) {
	cfg := gatewayConfig{capabilities: registry.DefaultCapabilities()}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg, err := registry.New(cfg.capabilities)
	if err != nil {
		return nil, err
	}

	table := cfg.pricingTable
	if table == nil {
		table = pricing.NewDefaultTable()
	}
	var acctOpts []pricing.Option
	if cfg.pessimisticCost {
		acctOpts = append(acctOpts, pricing.WithPessimisticDebit())
	}
	accountant := pricing.New(table, acctOpts...)

	routerCfg := cfg.routerConfig
	if routerCfg == nil {
		fallback := reg.All()[0].ID
		for _, m := range reg.All() {
			if m.IsLocal {
				fallback = m.ID
				break
			}
		}
		defaults := types.DefaultRouterConfig(fallback)
		routerCfg = &defaults
	}

	r, err := router.New(reg, accountant, *routerCfg)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		registry:   reg,
		analyzer:   tokenizer.New(),
		accountant: accountant,
		router:     r,
	}, nil
}

// Default builds a Gateway with the built-in model catalogue, default
// pricing table, and default router policy — the convenience constructor
// referenced in SPEC_FULL.md §6.
func Default() *Gateway {
	g, err := New()
	if err != nil {
		// The built-in catalogue and its own default fallback are both
		// constructed here and are invariant across builds; a failure would
		// mean the built-in data itself is broken, not a caller error.
		panic(err)
	}
	return g
}

// CountTokens counts input tokens for payload under modelID and projects
// expected output tokens (SPEC_FULL.md §4.2).
func (g *Gateway) CountTokens(payload types.Payload, modelID string) types.TokenCount {
	return g.analyzer.CountTokens(payload, modelID)
}

// EstimateCost projects the cost of a request given model and token counts
// (SPEC_FULL.md §4.3).
func (g *Gateway) EstimateCost(modelID string, inputTokens, outputTokens int) types.CostEstimate {
	return g.accountant.Estimate(modelID, inputTokens, outputTokens)
}

// CheckBudget reports whether spending `estimated` more would stay within
// the configured budget.
func (g *Gateway) CheckBudget(estimated float64) (bool, string) {
	return g.accountant.CheckBudget(estimated)
}

// RecordCost appends estimate to the spend ledger.
func (g *Gateway) RecordCost(estimate types.CostEstimate) {
	g.accountant.RecordCost(estimate)
}

// SetBudget sets the absolute spend ceiling.
func (g *Gateway) SetBudget(limit float64) {
	g.accountant.SetBudget(limit)
}

// Summary reports the current spend state.
func (g *Gateway) Summary() types.BudgetSummary {
	return g.accountant.Summary()
}

// RecordLatency appends an observed latency sample for modelID.
func (g *Gateway) RecordLatency(modelID string, observedMS float64) {
	g.router.RecordLatency(modelID, observedMS)
}

// SetRouterConfig atomically replaces the routing policy.
func (g *Gateway) SetRouterConfig(cfg types.RouterConfig) error {
	return g.router.SetConfig(cfg)
}

// Route selects the best model for task given input_tokens, per
// SPEC_FULL.md §4.4.
func (g *Gateway) Route(task types.TaskKind, inputTokens int, opts router.RouteOptions) (types.RoutingDecision, error) {
	return g.router.Route(task, inputTokens, opts)
}

// Registry exposes the underlying model catalogue for callers that need
// direct lookups.
func (g *Gateway) Registry() *registry.Registry {
	return g.registry
}
