package config

// Shared types used across configuration structs.

// EndpointConfig describes an HTTP collaborator backend (LLM
// completion, vector search, or any other JSON/HTTP service the core
// consumes through a narrow collaborator interface).
type EndpointConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required"`
	Model          string `yaml:"model,omitempty"`
	APIKeyEnv      string `yaml:"api_key_env,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// MaskingConfig defines data masking configuration applied to trajectory
// events and alert payloads before they are persisted or distilled into
// notes.
type MaskingConfig struct {
	Enabled        bool             `yaml:"enabled"`
	PatternGroups  []string         `yaml:"pattern_groups,omitempty"`
	Patterns       []string         `yaml:"patterns,omitempty"`
	CustomPatterns []MaskingPattern `yaml:"custom_patterns,omitempty"`
}

// MaskingPattern defines a regex-based masking pattern.
type MaskingPattern struct {
	Pattern     string `yaml:"pattern" validate:"required"`
	Replacement string `yaml:"replacement" validate:"required"`
	Description string `yaml:"description,omitempty"`
}
