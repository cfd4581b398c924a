package types

// CostBreakdown snapshots the token counts and unit rates a CostEstimate
// was computed from, for debuggability.
type CostBreakdown struct {
	InputTokens  int
	OutputTokens int
	InputRate    float64 // USD per 1000 input tokens
	OutputRate   float64 // USD per 1000 output tokens
}

// CostEstimate is the projected or actual monetary cost of one request.
type CostEstimate struct {
	InputCost  float64
	OutputCost float64
	TotalCost  float64
	Currency   string // always "USD"
	ModelID    string
	Breakdown  CostBreakdown
}

// BudgetSummary reports the current spend state, returned by
// Accountant.Summary().
type BudgetSummary struct {
	TotalSpent     float64
	BudgetLimit    *float64 // nil when no budget is configured
	Remaining      *float64 // nil when no budget is configured
	ByModel        map[string]float64
	RequestCount   int
}
