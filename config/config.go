// Package config loads the Houston configuration: the role table mapping
// symbolic request categories onto provider/model pairs, provider
// credentials, store locations and logging settings. Configuration comes from
// in-code defaults, an optional YAML file and HOUSTON_* environment variable
// overrides, in that order. Watch adds hot reload on file changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role assigns a fixed provider/model pairing (and optional system
// instruction) to a symbolic request category.
type Role struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Instruction string `yaml:"instruction,omitempty"`
}

// Providers holds per-provider credentials and endpoints.
type Providers struct {
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Gemini    ProviderConfig `yaml:"gemini"`
	Ollama    ProviderConfig `yaml:"ollama"`
}

// ProviderConfig is a single provider's credentials and endpoint override.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// UsageConfig selects the usage ledger backend. An empty DB path keeps the
// ledger in memory.
type UsageConfig struct {
	DB string `yaml:"db,omitempty"`
}

// NotesConfig selects the note store backend. An empty DB path keeps notes
// in memory.
type NotesConfig struct {
	DB string `yaml:"db,omitempty"`
}

// LoggingConfig controls the structured logger the CLI builds.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Config is the full application configuration.
type Config struct {
	Roles     map[string]Role `yaml:"roles"`
	Providers Providers       `yaml:"providers"`
	Usage     UsageConfig     `yaml:"usage"`
	Notes     NotesConfig     `yaml:"notes"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// knownProviders is the set of provider names built into the registry.
var knownProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"gemini":    true,
	"ollama":    true,
}

// Default returns the baseline configuration: the standard role table and
// in-memory stores.
func Default() Config {
	return Config{
		Roles: map[string]Role{
			"agents": {Provider: "anthropic", Model: "sonnet-4.5"},
			"tasks":  {Provider: "anthropic", Model: "haiku-4.5"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a YAML file (if path is non-empty), then
// applies environment variable overrides. An empty path returns defaults +
// env overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays HOUSTON_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HOUSTON_ANTHROPIC_API_KEY"); v != "" {
		cfg.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("HOUSTON_OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("HOUSTON_GEMINI_API_KEY"); v != "" {
		cfg.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("HOUSTON_OLLAMA_URL"); v != "" {
		cfg.Providers.Ollama.BaseURL = v
	}
	if v := os.Getenv("HOUSTON_USAGE_DB"); v != "" {
		cfg.Usage.DB = v
	}
	if v := os.Getenv("HOUSTON_NOTES_DB"); v != "" {
		cfg.Notes.DB = v
	}
	if v := os.Getenv("HOUSTON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOUSTON_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate rejects roles naming unknown providers or empty models.
func (c Config) Validate() error {
	for name, role := range c.Roles {
		if !knownProviders[role.Provider] {
			return fmt.Errorf("config: role %q names unknown provider %q", name, role.Provider)
		}
		if role.Model == "" {
			return fmt.Errorf("config: role %q has empty model", name)
		}
	}
	return nil
}
