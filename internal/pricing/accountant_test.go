package pricing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanhq/gatewayrouter/pkg/types"
)

func TestEstimate_WildcardFamilyMatch(t *testing.T) {
	a := New(NewDefaultTable())

	est := a.Estimate("cloud-openai:gpt-4o-2024-11-20", 1000, 1000)
	assert.InDelta(t, 0.0025+0.01, est.TotalCost, 1e-9)
	assert.Equal(t, "USD", est.Currency)
}

func TestEstimate_UnknownModelIsZeroCost(t *testing.T) {
	a := New(NewDefaultTable())
	est := a.Estimate("local-mlx:llama-3.2-8b", 5000, 2000)
	assert.Equal(t, 0.0, est.TotalCost)
}

func TestCheckBudget_NoLimitAlwaysAllows(t *testing.T) {
	a := New(NewDefaultTable())
	ok, reason := a.CheckBudget(999.0)
	assert.True(t, ok)
	assert.Equal(t, "no limit", reason)
}

// S5 — budget gate: set_budget(1.00); record two CostEstimates summing to
// 0.95; check_budget(0.10) → (false, reason containing "0.0500").
func TestCheckBudget_S5BudgetGate(t *testing.T) {
	a := New(NewDefaultTable())
	a.SetBudget(1.00)

	a.RecordCost(types.CostEstimate{TotalCost: 0.60, ModelID: "cloud-openai:gpt-4o"})
	a.RecordCost(types.CostEstimate{TotalCost: 0.35, ModelID: "cloud-anthropic:claude-3-5-sonnet"})

	ok, reason := a.CheckBudget(0.10)
	require.False(t, ok)
	assert.True(t, strings.Contains(reason, "0.0500"), "reason = %q", reason)
}

// Invariant 5 — record_cost is additive.
func TestRecordCost_Additive(t *testing.T) {
	a := New(NewDefaultTable())

	total := 0.0
	for i := 0; i < 10; i++ {
		est := a.Estimate("cloud-openai:gpt-4o", 100*(i+1), 50)
		a.RecordCost(est)
		total += est.TotalCost
	}

	summary := a.Summary()
	assert.InDelta(t, total, summary.TotalSpent, 1e-9)
	assert.Equal(t, 10, summary.RequestCount)
}

// Invariant 6 — check_budget(x) == true iff total_spent + x <= limit.
func TestCheckBudget_Invariant(t *testing.T) {
	a := New(NewDefaultTable())
	a.SetBudget(10.0)
	a.RecordCost(types.CostEstimate{TotalCost: 7.0, ModelID: "m"})

	ok, _ := a.CheckBudget(3.0)
	assert.True(t, ok)

	ok, _ = a.CheckBudget(3.0001)
	assert.False(t, ok)
}

func TestSummary_ByModel(t *testing.T) {
	a := New(NewDefaultTable())
	a.RecordCost(types.CostEstimate{TotalCost: 1.0, ModelID: "a"})
	a.RecordCost(types.CostEstimate{TotalCost: 2.0, ModelID: "a"})
	a.RecordCost(types.CostEstimate{TotalCost: 5.0, ModelID: "b"})

	summary := a.Summary()
	assert.InDelta(t, 3.0, summary.ByModel["a"], 1e-9)
	assert.InDelta(t, 5.0, summary.ByModel["b"], 1e-9)
	assert.InDelta(t, 8.0, summary.TotalSpent, 1e-9)
}

func TestPessimisticDebit_ReserveAndRelease(t *testing.T) {
	a := New(NewDefaultTable(), WithPessimisticDebit())
	a.SetBudget(1.0)

	ok, _ := a.Reserve("req-1", 0.8)
	require.True(t, ok)

	ok, _ = a.Reserve("req-2", 0.5)
	require.False(t, ok, "second reservation should not fit remaining 0.2 headroom")

	a.ReleaseReservation("req-1", 0.8)
	summary := a.Summary()
	assert.InDelta(t, 0.0, summary.TotalSpent, 1e-9)
}
