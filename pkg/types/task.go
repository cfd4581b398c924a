// Package types defines the data model shared by the registry, tokenizer,
// pricing, and router packages: task kinds, model capabilities, router
// configuration, and the transient per-request values the router produces.
package types

// TaskKind is a closed enumeration of the work categories the router
// understands. New kinds require a code change and at least one registry
// entry (or a fallback that supports them) before routing is possible.
type TaskKind string

const (
	TaskChat               TaskKind = "chat"
	TaskCode               TaskKind = "code"
	TaskAudioTranscription TaskKind = "audio-transcription"
	TaskAudioGeneration    TaskKind = "audio-generation"
	TaskImageAnalysis      TaskKind = "image-analysis"
	TaskVideoAnalysis      TaskKind = "video-analysis"
	TaskEmbedding          TaskKind = "embedding"
	TaskSummarization      TaskKind = "summarization"
	TaskCreativeWriting    TaskKind = "creative-writing"
)

// knownTaskKinds enumerates every TaskKind the router recognizes, used to
// validate registry entries and caller input against the closed set.
var knownTaskKinds = map[TaskKind]struct{}{
	TaskChat:               {},
	TaskCode:               {},
	TaskAudioTranscription: {},
	TaskAudioGeneration:    {},
	TaskImageAnalysis:      {},
	TaskVideoAnalysis:      {},
	TaskEmbedding:          {},
	TaskSummarization:      {},
	TaskCreativeWriting:    {},
}

// Valid reports whether t is one of the declared TaskKind values.
func (t TaskKind) Valid() bool {
	_, ok := knownTaskKinds[t]
	return ok
}

// String implements fmt.Stringer.
func (t TaskKind) String() string {
	return string(t)
}

// ProviderKind tags the family a model belongs to — local accelerator or a
// remote paid API — independent of the specific provider implementation,
// which lives outside this module (see pkg/types doc and SPEC_FULL.md §3).
type ProviderKind string

const (
	ProviderLocalMLX      ProviderKind = "local-mlx"
	ProviderLocalOllama   ProviderKind = "local-ollama"
	ProviderCloudOpenAI   ProviderKind = "cloud-openai"
	ProviderCloudAnthropic ProviderKind = "cloud-anthropic"
	ProviderCloudGoogle   ProviderKind = "cloud-google"
)

// IsLocalKind reports whether a provider kind belongs to the local family.
func (p ProviderKind) IsLocalKind() bool {
	switch p {
	case ProviderLocalMLX, ProviderLocalOllama:
		return true
	default:
		return false
	}
}
