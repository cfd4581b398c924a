// Package config provides configuration loading with hot-reload support.
// It uses gopkg.in/yaml.v3 for parsing, fsnotify to watch for file changes,
// and atomic pointer swaps for zero-downtime updates, following the pattern
// laid out in manager.go.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/normanhq/gatewayrouter/internal/pricing"
	"github.com/normanhq/gatewayrouter/internal/registry"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// Config is the complete on-disk configuration for a gateway router
// instance: the model catalogue, routing policy, pricing overrides, and
// ambient server settings (SPEC_FULL.md §2).
type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Router  RouterConfig    `yaml:"router"`
	Models  []ModelConfig   `yaml:"models"`
	Pricing []PricingConfig `yaml:"pricing,omitempty"`
	Logging LoggingConfig   `yaml:"logging"`
	Metrics MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings for cmd/gatewayrouter.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RouterConfig mirrors types.RouterConfig in a YAML-friendly shape.
type RouterConfig struct {
	PreferLocal     bool    `yaml:"prefer_local"`
	MaxCostUSD      float64 `yaml:"max_cost_usd"`
	MaxLatencyMS    int     `yaml:"max_latency_ms"`
	MinQualityScore float64 `yaml:"min_quality_score"`
	FallbackModelID string  `yaml:"fallback_model_id"`
}

// ToTypes converts the YAML shape into the types.RouterConfig the router
// package consumes.
func (r RouterConfig) ToTypes() types.RouterConfig {
	return types.RouterConfig{
		PreferLocal:     r.PreferLocal,
		MaxCostUSD:      r.MaxCostUSD,
		MaxLatencyMS:    r.MaxLatencyMS,
		MinQualityScore: r.MinQualityScore,
		FallbackModelID: r.FallbackModelID,
	}
}

// ModelConfig is the YAML shape of one registry.types.ModelCapability
// entry.
type ModelConfig struct {
	ID                  string   `yaml:"id"`
	Provider            string   `yaml:"provider"`
	Supports            []string `yaml:"supports"`
	MaxContext          int      `yaml:"max_context"`
	InputCostPer1K      float64  `yaml:"input_cost_per_1k"`
	OutputCostPer1K     float64  `yaml:"output_cost_per_1k"`
	BaselineLatencyMS   int      `yaml:"baseline_latency_ms"`
	QualityScore        float64  `yaml:"quality_score"`
	IsLocal             bool     `yaml:"is_local"`
	RequiresAccelerator bool     `yaml:"requires_accelerator"`
}

// ToCapability converts the YAML shape into a types.ModelCapability.
func (m ModelConfig) ToCapability() types.ModelCapability {
	supports := make(map[types.TaskKind]struct{}, len(m.Supports))
	for _, s := range m.Supports {
		supports[types.TaskKind(s)] = struct{}{}
	}
	return types.ModelCapability{
		ID:                  m.ID,
		Provider:            types.ProviderKind(m.Provider),
		Supports:            supports,
		MaxContext:          m.MaxContext,
		InputCostPer1K:      m.InputCostPer1K,
		OutputCostPer1K:     m.OutputCostPer1K,
		BaselineLatencyMS:   m.BaselineLatencyMS,
		QualityScore:        m.QualityScore,
		IsLocal:             m.IsLocal,
		RequiresAccelerator: m.RequiresAccelerator,
	}
}

// PricingConfig is the YAML shape of one pricing.FamilyRate override.
type PricingConfig struct {
	Family     string  `yaml:"family"`
	InputRate  float64 `yaml:"input_rate"`
	OutputRate float64 `yaml:"output_rate"`
}

func (p PricingConfig) toRate() pricing.FamilyRate {
	return pricing.FamilyRate{Family: p.Family, InputRate: p.InputRate, OutputRate: p.OutputRate}
}

// LoggingConfig is the logging section of the configuration. Validate
// checks Format; cmd/gatewayrouter does not read this section and always
// installs a JSON handler at info level.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a configuration with the built-in model catalogue
// and the original source's router defaults, serving as the base that
// LoadFromFile unmarshals on top of.
func DefaultConfig() *Config {
	caps := registry.DefaultCapabilities()
	models := make([]ModelConfig, 0, len(caps))
	for _, c := range caps {
		supports := make([]string, 0, len(c.Supports))
		for k := range c.Supports {
			supports = append(supports, string(k))
		}
		models = append(models, ModelConfig{
			ID:                  c.ID,
			Provider:            string(c.Provider),
			Supports:            supports,
			MaxContext:          c.MaxContext,
			InputCostPer1K:      c.InputCostPer1K,
			OutputCostPer1K:     c.OutputCostPer1K,
			BaselineLatencyMS:   c.BaselineLatencyMS,
			QualityScore:        c.QualityScore,
			IsLocal:             c.IsLocal,
			RequiresAccelerator: c.RequiresAccelerator,
		})
	}

	return &Config{
		Server: ServerConfig{Addr: ":8089"},
		Router: RouterConfig{
			PreferLocal:     true,
			MaxCostUSD:      0.50,
			MaxLatencyMS:    2000,
			MinQualityScore: 0.80,
			FallbackModelID: "local-ollama:llama3.2-8b",
		},
		Models:  models,
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// LoadFromFile reads and parses a YAML configuration file, expanding
// ${VAR_NAME} environment references, and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for internal consistency. Full
// validation of individual models and the router policy is delegated to
// registry.New and router.New/SetConfig, which have access to the data
// model's invariants; Validate here only rejects structurally empty input.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must be set")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("config: at least one model must be configured")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: logging.format must be \"json\" or \"text\", got %q", c.Logging.Format)
	}
	return nil
}

// Capabilities converts the configured models into types.ModelCapability
// values suitable for registry.New.
func (c *Config) Capabilities() []types.ModelCapability {
	caps := make([]types.ModelCapability, 0, len(c.Models))
	for _, m := range c.Models {
		caps = append(caps, m.ToCapability())
	}
	return caps
}

// PricingTable converts configured pricing overrides into a
// pricing.Table, or nil if none are configured (callers should fall back
// to pricing.NewDefaultTable()).
func (c *Config) PricingTable() *pricing.Table {
	if len(c.Pricing) == 0 {
		return nil
	}
	rates := make([]pricing.FamilyRate, 0, len(c.Pricing))
	for _, p := range c.Pricing {
		rates = append(rates, p.toRate())
	}
	return pricing.NewTable(rates)
}
