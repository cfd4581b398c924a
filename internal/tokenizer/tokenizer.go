// Package tokenizer implements the Token Analyzer: it estimates input
// token counts for a payload under a model's tokenization family and
// projects an expected output token count. See SPEC_FULL.md §4.2.
package tokenizer

import (
	"math"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkoukk/tiktoken-go"

	"github.com/normanhq/gatewayrouter/internal/metrics"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// family identifies which tokenizer family a model id resolves to.
type family int

const (
	familyOpenAI family = iota
	familyClaude
	familyLlama
	familyUnknown
)

// llamaCharsPerToken is a documented heuristic ratio for the Llama family.
// No third-party Go library in scope implements the real Llama BPE
// tokenizer (see DESIGN.md); this mirrors the per-family fixed-ratio
// approach used for SentencePiece-style tokenizers elsewhere in the
// ecosystem rather than reusing the generic character estimate verbatim,
// so that the method tag stays distinguishable from "estimate".
const llamaCharsPerToken = 3.8

// Analyzer counts tokens for a payload under a given model's tokenizer
// family. It is stateful only in its tokenizer caches, which are safe for
// concurrent use (SPEC_FULL.md §5).
type Analyzer struct {
	// encodings caches constructed *tiktoken.Tiktoken encoders, keyed by
	// family (not by model id), retained for process lifetime. NoExpiration
	// matches that contract; the janitor is disabled since entries never
	// expire.
	encodings *gocache.Cache
}

// New creates an Analyzer with an empty tokenizer cache.
func New() *Analyzer {
	return &Analyzer{
		encodings: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

// CountTokens estimates input tokens for payload under modelID's
// tokenization family and projects expected output tokens. It never
// returns an error: any internal tokenizer failure degrades to the
// character heuristic (spec.md §7).
func (a *Analyzer) CountTokens(payload types.Payload, modelID string) types.TokenCount {
	text := payload.Flatten()

	inputTokens, method := a.countByFamily(text, modelID)
	outputTokens := types.ProjectOutputTokens(inputTokens)

	return types.TokenCount{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Method:       method,
	}
}

// countByFamily matches modelID against known families, in the priority
// order spec.md §4.2 mandates, and counts with the matching method.
func (a *Analyzer) countByFamily(text, modelID string) (int, string) {
	switch resolveFamily(modelID) {
	case familyOpenAI:
		if n, ok := a.countWithTiktoken(text, modelID); ok {
			return n, types.MethodOpenAIBPE
		}
		a.recordDegraded(modelID, types.MethodEstimate)
		return characterEstimate(text), types.MethodEstimate
	case familyClaude:
		if n, ok := a.countWithTiktoken(text, modelID); ok {
			return n, types.MethodApproximation
		}
		a.recordDegraded(modelID, types.MethodEstimate)
		return characterEstimate(text), types.MethodEstimate
	case familyLlama:
		return llamaEstimate(text), types.MethodLlama
	default:
		a.recordDegraded(modelID, types.MethodEstimate)
		return characterEstimate(text), types.MethodEstimate
	}
}

// recordDegraded increments the tokenizer_degraded_total counter whenever a
// model could not be counted with its family's real tokenizer and fell back
// to the character-estimate heuristic (spec.md §7, TokenizerDegraded).
func (a *Analyzer) recordDegraded(modelID, method string) {
	metrics.TokenizerDegraded.WithLabelValues(modelID, method).Inc()
}

// resolveFamily matches a model identifier against known tokenizer
// families using a case-insensitive substring test, in priority order:
// GPT/OpenAI, then Claude, then Llama.
func resolveFamily(modelID string) family {
	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "gpt"), strings.Contains(lower, "openai"):
		return familyOpenAI
	case strings.Contains(lower, "claude"):
		return familyClaude
	case strings.Contains(lower, "llama"):
		return familyLlama
	default:
		return familyUnknown
	}
}

// countWithTiktoken counts text with the cached tiktoken encoding for
// modelID's family, constructing it on first use. Returns ok=false if no
// encoding could be built at all, in which case the caller degrades to the
// character heuristic.
func (a *Analyzer) countWithTiktoken(text, modelID string) (int, bool) {
	if text == "" {
		return 0, true
	}
	enc := a.encodingFor(modelID)
	if enc == nil {
		return 0, false
	}
	return len(enc.Encode(text, nil, nil)), true
}

// encodingFor returns the cached *tiktoken.Tiktoken for modelID's family,
// keyed by encoding name rather than by model id so that GPT-4o and
// GPT-4o-mini, say, share one cached encoder. There is no construction
// lock: concurrent first users may each build an encoder, but go-cache's
// Add publishes only the first one stored under key, and every goroutine
// that lost that race returns the published encoder and drops its own.
func (a *Analyzer) encodingFor(modelID string) *tiktoken.Tiktoken {
	key := cacheKeyFor(modelID)
	if cached, ok := a.encodings.Get(key); ok {
		if enc, ok := cached.(*tiktoken.Tiktoken); ok {
			return enc
		}
	}

	enc := buildEncoding(modelID)
	if enc == nil {
		return nil
	}
	if err := a.encodings.Add(key, enc, gocache.NoExpiration); err != nil {
		if cached, ok := a.encodings.Get(key); ok {
			if published, ok := cached.(*tiktoken.Tiktoken); ok {
				return published
			}
		}
	}
	return enc
}

// cacheKeyFor buckets model identifiers into the handful of real encodings
// tiktoken ships, so the cache is keyed by encoding family rather than by
// every distinct model id.
func cacheKeyFor(modelID string) string {
	lower := strings.ToLower(modelID)
	if strings.Contains(lower, "gpt-4o") {
		return "o200k_base"
	}
	return "cl100k_base"
}

func buildEncoding(modelID string) *tiktoken.Tiktoken {
	lower := strings.ToLower(modelID)
	if strings.Contains(lower, "gpt-4o") {
		if enc, err := tiktoken.GetEncoding("o200k_base"); err == nil {
			return enc
		}
	}
	if enc, err := tiktoken.EncodingForModel(normalizeModelName(modelID)); err == nil {
		return enc
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil
	}
	return enc
}

// normalizeModelName strips any "<provider-tag>:" or path prefix so that
// tiktoken's own model table (which knows plain model names like
// "gpt-4o-mini", not "cloud-openai:gpt-4o-mini") can match.
func normalizeModelName(modelID string) string {
	if idx := strings.LastIndex(modelID, ":"); idx >= 0 && idx+1 < len(modelID) {
		modelID = modelID[idx+1:]
	}
	if idx := strings.LastIndex(modelID, "/"); idx >= 0 && idx+1 < len(modelID) {
		modelID = modelID[idx+1:]
	}
	return modelID
}

// characterEstimate implements the ⌈chars/4⌉ fallback heuristic.
func characterEstimate(text string) int {
	if text == "" {
		return 0
	}
	chars := float64(len([]rune(text)))
	return int(math.Ceil(chars / 4))
}

// llamaEstimate implements the Llama-family heuristic ratio.
func llamaEstimate(text string) int {
	if text == "" {
		return 0
	}
	chars := float64(len([]rune(text)))
	return int(math.Ceil(chars / llamaCharsPerToken))
}
