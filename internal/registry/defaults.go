package registry

import "github.com/normanhq/gatewayrouter/pkg/types"

func tasks(kinds ...types.TaskKind) map[types.TaskKind]struct{} {
	set := make(map[types.TaskKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// DefaultCapabilities reproduces the default model catalogue from the
// original source's MODEL_REGISTRY: local MLX/Ollama entries at zero cost
// plus a handful of remote frontier models. It is a convenience default for
// callers that have not wired a configuration-driven catalogue through
// internal/config — not a contract.
func DefaultCapabilities() []types.ModelCapability {
	return []types.ModelCapability{
		{
			ID:                "local-ollama:llama3.2-8b",
			Provider:          types.ProviderLocalOllama,
			Supports:          tasks(types.TaskChat, types.TaskCode, types.TaskSummarization),
			MaxContext:        128000,
			InputCostPer1K:    0,
			OutputCostPer1K:   0,
			BaselineLatencyMS: 50,
			QualityScore:      0.82,
			IsLocal:           true,
			RequiresAccelerator: true,
		},
		{
			ID:                "local-ollama:qwen2.5-coder-7b",
			Provider:          types.ProviderLocalOllama,
			Supports:          tasks(types.TaskCode, types.TaskChat),
			MaxContext:        32000,
			InputCostPer1K:    0,
			OutputCostPer1K:   0,
			BaselineLatencyMS: 45,
			QualityScore:      0.85,
			IsLocal:           true,
			RequiresAccelerator: true,
		},
		{
			ID:       "local-mlx:llama-3.2-8b",
			Provider: types.ProviderLocalMLX,
			Supports: tasks(
				types.TaskChat,
				types.TaskCode,
				types.TaskSummarization,
				types.TaskCreativeWriting,
			),
			MaxContext:        128000,
			InputCostPer1K:    0,
			OutputCostPer1K:   0,
			BaselineLatencyMS: 30,
			QualityScore:      0.82,
			IsLocal:           true,
			RequiresAccelerator: true,
		},
		{
			ID:       "cloud-openai:gpt-4o",
			Provider: types.ProviderCloudOpenAI,
			Supports: tasks(
				types.TaskChat,
				types.TaskCode,
				types.TaskImageAnalysis,
				types.TaskCreativeWriting,
			),
			MaxContext:        128000,
			InputCostPer1K:    0.0025,
			OutputCostPer1K:   0.01,
			BaselineLatencyMS: 800,
			QualityScore:      0.95,
		},
		{
			ID:       "cloud-anthropic:claude-3-5-sonnet",
			Provider: types.ProviderCloudAnthropic,
			Supports: tasks(
				types.TaskChat,
				types.TaskCode,
				types.TaskCreativeWriting,
				types.TaskImageAnalysis,
			),
			MaxContext:        200000,
			InputCostPer1K:    0.003,
			OutputCostPer1K:   0.015,
			BaselineLatencyMS: 1000,
			QualityScore:      0.96,
		},
		{
			ID:       "cloud-google:gemini-2.0-flash",
			Provider: types.ProviderCloudGoogle,
			Supports: tasks(
				types.TaskChat,
				types.TaskCode,
				types.TaskImageAnalysis,
				types.TaskVideoAnalysis,
			),
			MaxContext:        1000000,
			InputCostPer1K:    0.000075,
			OutputCostPer1K:   0.0003,
			BaselineLatencyMS: 400,
			QualityScore:      0.90,
		},
	}
}
