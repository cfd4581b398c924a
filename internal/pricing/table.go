// Package pricing implements the Cost Accountant: per-request cost
// projection, a budget gate, and an append-only spend ledger. See
// SPEC_FULL.md §4.3.
package pricing

import (
	"strings"

	"github.com/normanhq/gatewayrouter/pkg/types"
)

// FamilyRate is the per-1000-token input/output rate for one pricing
// family. Family is matched as a lowercased substring of the model id;
// first hit wins (see Table.RateFor).
type FamilyRate struct {
	Family     string
	InputRate  float64 // USD per 1000 input tokens
	OutputRate float64 // USD per 1000 output tokens
}

// Table is a pricing lookup: family name -> rate. It is data, not code —
// construct one with NewTable/NewDefaultTable and pass it to New; override
// at construction or from internal/config rather than editing the built-in
// table in place.
type Table struct {
	rates []FamilyRate
}

// DefaultRates folds together the teacher's built-in pricing table and the
// original source's CostCalculator.PRICING map (SPEC_FULL.md §4.3). Per-1K
// USD rates, approximate as of early-to-mid 2025 — callers needing current
// rates should override via NewTable or internal/config.
var DefaultRates = []FamilyRate{
	// OpenAI
	{Family: "gpt-4o-mini", InputRate: 0.00015, OutputRate: 0.0006},
	{Family: "gpt-4o", InputRate: 0.0025, OutputRate: 0.01},
	{Family: "gpt-4-turbo", InputRate: 0.01, OutputRate: 0.03},
	{Family: "gpt-4", InputRate: 0.03, OutputRate: 0.06},
	{Family: "gpt-3.5-turbo", InputRate: 0.0005, OutputRate: 0.0015},

	// Anthropic
	{Family: "claude-3-5-sonnet", InputRate: 0.003, OutputRate: 0.015},
	{Family: "claude-3-5-haiku", InputRate: 0.0008, OutputRate: 0.004},
	{Family: "claude-3-opus", InputRate: 0.015, OutputRate: 0.075},
	{Family: "claude-3-sonnet", InputRate: 0.003, OutputRate: 0.015},
	{Family: "claude-3-haiku", InputRate: 0.00025, OutputRate: 0.00125},
	{Family: "claude-2", InputRate: 0.008, OutputRate: 0.024},

	// Google
	{Family: "gemini-2.0-flash", InputRate: 0.000075, OutputRate: 0.0003},
	{Family: "gemini-1.5-pro", InputRate: 0.00125, OutputRate: 0.005},
	{Family: "gemini-1.5-flash", InputRate: 0.000075, OutputRate: 0.0003},
	{Family: "gemini-pro", InputRate: 0.0005, OutputRate: 0.0015},

	// Meta Llama (hosted)
	{Family: "llama-3", InputRate: 0.0002, OutputRate: 0.0002},
	{Family: "llama-2", InputRate: 0.0002, OutputRate: 0.0002},

	// Mistral
	{Family: "mistral-large", InputRate: 0.004, OutputRate: 0.012},
	{Family: "mistral-small", InputRate: 0.001, OutputRate: 0.003},
	{Family: "mixtral-8x7b", InputRate: 0.0007, OutputRate: 0.0007},

	// Cohere
	{Family: "command-r-plus", InputRate: 0.003, OutputRate: 0.015},
	{Family: "command-r", InputRate: 0.0005, OutputRate: 0.0015},

	// Local families are intentionally absent: unmatched models default to
	// zero cost, which is the correct rate for local-mlx/local-ollama
	// entries (see RateFor).
}

// NewTable builds a Table from an explicit rate list. A nil or empty slice
// is rejected by the caller's choice to use NewDefaultTable instead; NewTable
// does no implicit substitution so overrides are never silently ignored.
func NewTable(rates []FamilyRate) *Table {
	return &Table{rates: rates}
}

// NewDefaultTable builds a Table from DefaultRates.
func NewDefaultTable() *Table {
	return NewTable(DefaultRates)
}

// RateFor resolves the family rate for modelID: the first configured
// family name that appears as a substring of the lowercased model id wins.
// Unmatched models default to zero cost (assumed local), per SPEC_FULL.md
// §4.3. Model ids whose provider tag is a local kind (local-mlx,
// local-ollama) are always zero cost, even when the model name contains a
// hosted family name such as "llama-3".
func (t *Table) RateFor(modelID string) FamilyRate {
	lower := strings.ToLower(modelID)
	if idx := strings.Index(lower, ":"); idx > 0 && types.ProviderKind(lower[:idx]).IsLocalKind() {
		return FamilyRate{Family: "", InputRate: 0, OutputRate: 0}
	}
	for _, rate := range t.rates {
		if strings.Contains(lower, rate.Family) {
			return rate
		}
	}
	return FamilyRate{Family: "", InputRate: 0, OutputRate: 0}
}
