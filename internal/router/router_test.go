package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanhq/gatewayrouter/internal/pricing"
	"github.com/normanhq/gatewayrouter/internal/registry"
	"github.com/normanhq/gatewayrouter/pkg/gwerrors"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

func tasks(kinds ...types.TaskKind) map[types.TaskKind]struct{} {
	m := make(map[types.TaskKind]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	reg, err := registry.New(registry.DefaultCapabilities())
	require.NoError(t, err)

	acc := pricing.New(pricing.NewDefaultTable())
	cfg := types.DefaultRouterConfig("local-ollama:llama3.2-8b")

	r, err := New(reg, acc, cfg)
	require.NoError(t, err)
	return r
}

// Invariant 1: route() always returns a model that supports the requested
// task, or raises UnknownTask.
func TestRoute_Invariant1_ReturnedModelSupportsTask(t *testing.T) {
	r := newTestRouter(t)

	decision, err := r.Route(types.TaskChat, 500, RouteOptions{})
	require.NoError(t, err)
	assert.True(t, decision.Model.SupportsTask(types.TaskChat))
}

// Invariant 2: the chosen model's max_context is always >= input_tokens.
func TestRoute_Invariant2_ContextFits(t *testing.T) {
	r := newTestRouter(t)

	decision, err := r.Route(types.TaskChat, 4000, RouteOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, decision.Model.MaxContext, 4000)
}

// S1 — a chat request with generous budget and no locality requirement
// should select some model supporting chat.
func TestRoute_S1_BasicChatRouting(t *testing.T) {
	r := newTestRouter(t)

	decision, err := r.Route(types.TaskChat, 200, RouteOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, decision.ModelID)
	assert.False(t, decision.Fallback)
}

// S2 — require_local=true must only ever return a local model.
func TestRoute_S2_RequireLocal(t *testing.T) {
	r := newTestRouter(t)

	decision, err := r.Route(types.TaskChat, 200, RouteOptions{RequireLocal: true})
	require.NoError(t, err)
	assert.True(t, decision.Model.IsLocal)
}

// S3 — a zero max_cost is binding: only zero-cost (local) models may be
// returned, per SPEC_FULL.md §9's resolution of the first open question.
func TestRoute_S3_ZeroMaxCostIsBinding(t *testing.T) {
	r := newTestRouter(t)

	zero := 0.0
	decision, err := r.Route(types.TaskChat, 200, RouteOptions{MaxCost: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, decision.EstimatedCost)
}

// Invariant 4: fallback decisions compute a true cost, not a hardcoded
// zero, when the fallback model is not local.
func TestRoute_Invariant4_FallbackComputesTrueCost(t *testing.T) {
	caps := []types.ModelCapability{
		{
			ID:                "cloud-openai:gpt-4o",
			Provider:          types.ProviderCloudOpenAI,
			Supports:          tasks(types.TaskChat),
			MaxContext:        128000,
			InputCostPer1K:    0.0025,
			OutputCostPer1K:   0.01,
			BaselineLatencyMS: 800,
			QualityScore:      0.95,
			IsLocal:           false,
		},
	}
	reg, err := registry.New(caps)
	require.NoError(t, err)

	acc := pricing.New(pricing.NewDefaultTable())
	cfg := types.RouterConfig{
		PreferLocal:     false,
		MaxCostUSD:      0, // nothing fits -> forces fallback
		MaxLatencyMS:    2000,
		MinQualityScore: 0.80,
		FallbackModelID: "cloud-openai:gpt-4o",
	}
	r, err := New(reg, acc, cfg)
	require.NoError(t, err)

	decision, err := r.Route(types.TaskChat, 1000, RouteOptions{ExpectedOutputTokens: 1000})
	require.NoError(t, err)
	assert.True(t, decision.Fallback)
	assert.Greater(t, decision.EstimatedCost, 0.0)
}

// S6 — RecordLatency influences subsequent scoring.
func TestRoute_S6_RecordLatencyFeedsScoring(t *testing.T) {
	r := newTestRouter(t)

	for i := 0; i < 10; i++ {
		r.RecordLatency("local-ollama:llama3.2-8b", 50)
	}

	est, ok := r.latency.Estimate("local-ollama:llama3.2-8b")
	require.True(t, ok)
	assert.InDelta(t, 50.0, est, 1e-9)
}

// Invariant 7: an unknown task with no supporting model (including the
// fallback) raises UnknownTask.
func TestRoute_Invariant7_UnknownTaskWithNoFallbackSupport(t *testing.T) {
	caps := []types.ModelCapability{
		{
			ID:                "local-ollama:llama3.2-8b",
			Provider:          types.ProviderLocalOllama,
			Supports:          tasks(types.TaskChat),
			MaxContext:        8192,
			BaselineLatencyMS: 400,
			QualityScore:      0.75,
			IsLocal:           true,
		},
	}
	reg, err := registry.New(caps)
	require.NoError(t, err)
	acc := pricing.New(pricing.NewDefaultTable())
	cfg := types.DefaultRouterConfig("local-ollama:llama3.2-8b")
	r, err := New(reg, acc, cfg)
	require.NoError(t, err)

	_, err = r.Route(types.TaskEmbedding, 100, RouteOptions{})
	require.Error(t, err)
	rerr, ok := err.(*gwerrors.RouterError)
	require.True(t, ok)
	assert.Equal(t, gwerrors.KindUnknownTask, rerr.Kind)
}

// Invariant 8: input tokens exceeding every model's context, including the
// fallback's, raises ContextOverflow.
func TestRoute_Invariant8_ContextOverflow(t *testing.T) {
	r := newTestRouter(t)

	_, err := r.Route(types.TaskChat, 10_000_000, RouteOptions{})
	require.Error(t, err)
	rerr, ok := err.(*gwerrors.RouterError)
	require.True(t, ok)
	assert.Equal(t, gwerrors.KindContextOverflow, rerr.Kind)
}

func TestNew_RejectsUnknownFallback(t *testing.T) {
	reg, err := registry.New(registry.DefaultCapabilities())
	require.NoError(t, err)
	acc := pricing.New(pricing.NewDefaultTable())
	cfg := types.DefaultRouterConfig("does-not-exist")

	_, err = New(reg, acc, cfg)
	require.Error(t, err)
	rerr, ok := err.(*gwerrors.RouterError)
	require.True(t, ok)
	assert.Equal(t, gwerrors.KindNoFallback, rerr.Kind)
}

func TestSetConfig_RejectsUnknownFallback(t *testing.T) {
	r := newTestRouter(t)

	cfg := types.DefaultRouterConfig("does-not-exist")
	err := r.SetConfig(cfg)
	require.Error(t, err)
}

func TestSelectBest_DeterministicTieBreak(t *testing.T) {
	caps := []types.ModelCapability{
		{
			ID:                "z-model",
			Provider:          types.ProviderLocalOllama,
			Supports:          tasks(types.TaskChat),
			MaxContext:        8192,
			BaselineLatencyMS: 400,
			QualityScore:      0.80,
			IsLocal:           true,
		},
		{
			ID:                "a-model",
			Provider:          types.ProviderLocalOllama,
			Supports:          tasks(types.TaskChat),
			MaxContext:        8192,
			BaselineLatencyMS: 400,
			QualityScore:      0.80,
			IsLocal:           true,
		},
	}
	reg, err := registry.New(caps)
	require.NoError(t, err)
	acc := pricing.New(pricing.NewDefaultTable())
	cfg := types.DefaultRouterConfig("a-model")
	r, err := New(reg, acc, cfg)
	require.NoError(t, err)

	decision, err := r.Route(types.TaskChat, 100, RouteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a-model", decision.ModelID)
}
