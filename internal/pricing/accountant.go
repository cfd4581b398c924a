package pricing

import (
	"fmt"
	"sync"

	"github.com/normanhq/gatewayrouter/internal/metrics"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// Accountant implements the Cost Accountant contract: cost projection, a
// budget gate, and an append-only spend ledger (SPEC_FULL.md §4.3).
//
// Budget state is guarded by a single mutex. check_budget and record are
// each atomic individually, but the pair is NOT atomic across calls — a
// concurrent caller may be approved against the same headroom between a
// check and its matching record. SPEC_FULL.md §4.3/§5 mandates accepting
// this documented slack as the default (option (a)); WithPessimisticDebit
// switches to debit-at-check/credit-back-on-failure (option (b)) for
// callers that need the stronger guarantee.
type Accountant struct {
	table *Table

	mu             sync.Mutex
	totalSpent     float64
	budgetLimit    *float64
	history        []types.CostEstimate
	byModel        map[string]float64
	pessimistic    bool
	reservedByKey  map[string]float64 // only used when pessimistic
}

// Option configures an Accountant at construction time.
type Option func(*Accountant)

// WithPessimisticDebit enables option (b) from SPEC_FULL.md §5: budget is
// debited pessimistically at check time and credited back on failure,
// rather than accepting concurrent in-flight slack.
func WithPessimisticDebit() Option {
	return func(a *Accountant) { a.pessimistic = true }
}

// New creates an Accountant backed by table (use NewDefaultTable() for the
// built-in pricing data, or a caller-supplied override per SPEC_FULL.md §9).
func New(table *Table, opts ...Option) *Accountant {
	a := &Accountant{
		table:         table,
		byModel:       make(map[string]float64),
		reservedByKey: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Estimate projects the cost of a request given model and token counts, per
// the formula in SPEC_FULL.md §4.3. No rounding is performed internally.
func (a *Accountant) Estimate(modelID string, inputTokens, outputTokens int) types.CostEstimate {
	rate := a.table.RateFor(modelID)

	inputCost := float64(inputTokens) / 1000.0 * rate.InputRate
	outputCost := float64(outputTokens) / 1000.0 * rate.OutputRate

	return types.CostEstimate{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
		Currency:   "USD",
		ModelID:    modelID,
		Breakdown: types.CostBreakdown{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			InputRate:    rate.InputRate,
			OutputRate:   rate.OutputRate,
		},
	}
}

// CheckBudget reports whether spending `estimated` more would stay within
// budget. With no budget configured, it always allows. check_budget and
// record are each atomic, but the pair across two calls is not — see the
// Accountant doc comment.
func (a *Accountant) CheckBudget(estimated float64) (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checkBudgetLocked(estimated)
}

func (a *Accountant) checkBudgetLocked(estimated float64) (bool, string) {
	if a.budgetLimit == nil {
		return true, "no limit"
	}
	projected := a.totalSpent + estimated
	if projected <= *a.budgetLimit {
		return true, "within budget"
	}
	remaining := *a.budgetLimit - a.totalSpent
	return false, fmt.Sprintf("%.4f", remaining)
}

// Reserve performs the pessimistic check-and-debit used when the
// Accountant was built WithPessimisticDebit: if the estimate fits, it is
// immediately added to totalSpent under the same lock and a reservation
// key is returned for later release via ReleaseReservation on failure.
// Reserve is a no-op check (equivalent to CheckBudget) when pessimistic
// mode is not enabled.
func (a *Accountant) Reserve(key string, estimated float64) (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok, reason := a.checkBudgetLocked(estimated)
	if !ok || !a.pessimistic {
		return ok, reason
	}
	a.totalSpent += estimated
	a.reservedByKey[key] += estimated
	return true, reason
}

// ReleaseReservation credits back a reservation made by Reserve when the
// dispatched call ultimately failed and no cost was actually incurred. A
// no-op outside pessimistic mode.
func (a *Accountant) ReleaseReservation(key string, amount float64) {
	if !a.pessimistic {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if have := a.reservedByKey[key]; have > 0 {
		credit := amount
		if credit > have {
			credit = have
		}
		a.reservedByKey[key] -= credit
		a.totalSpent -= credit
		if a.totalSpent < 0 {
			a.totalSpent = 0
		}
	}
}

// RecordCost appends estimate to the spend ledger and adds its total to
// cumulative spend. Must be invoked exactly once per successfully
// dispatched call, after true token usage is known (SPEC_FULL.md §4.3). In
// pessimistic mode, the caller is responsible for having already reserved
// via Reserve; RecordCost then only appends to history and per-model
// totals and never adds to totalSpent, which carries the reserved amount
// instead. Callers not using
// Reserve (the default, non-pessimistic mode) get the simple additive
// behavior spec.md §8 property 5 requires.
func (a *Accountant) RecordCost(estimate types.CostEstimate) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.pessimistic {
		a.totalSpent += estimate.TotalCost
	}
	a.history = append(a.history, estimate)
	a.byModel[estimate.ModelID] += estimate.TotalCost

	metrics.SpendTotal.WithLabelValues(estimate.ModelID).Add(estimate.TotalCost)
	a.updateBudgetGaugeLocked()
}

// SetBudget sets (or replaces) the absolute spend ceiling.
func (a *Accountant) SetBudget(limit float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.budgetLimit = &limit
	a.updateBudgetGaugeLocked()
}

// updateBudgetGaugeLocked refreshes the budget_remaining_usd gauge. Callers
// must already hold a.mu. Reports -1 when no budget is configured.
func (a *Accountant) updateBudgetGaugeLocked() {
	if a.budgetLimit == nil {
		metrics.BudgetRemaining.Set(-1)
		return
	}
	metrics.BudgetRemaining.Set(*a.budgetLimit - a.totalSpent)
}

// Summary reports the current spend state.
func (a *Accountant) Summary() types.BudgetSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	byModel := make(map[string]float64, len(a.byModel))
	for k, v := range a.byModel {
		byModel[k] = v
	}

	summary := types.BudgetSummary{
		TotalSpent:   a.totalSpent,
		ByModel:      byModel,
		RequestCount: len(a.history),
	}
	if a.budgetLimit != nil {
		limit := *a.budgetLimit
		remaining := limit - a.totalSpent
		summary.BudgetLimit = &limit
		summary.Remaining = &remaining
	}
	return summary
}
