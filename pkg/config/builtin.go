package config

import (
	"sync"
)

// BuiltinConfig holds built-in configuration data: the default tenant
// bundle that fills any section a declared tenant leaves unset,
// the default collaborator endpoints, and the masking patterns used to
// redact secrets from trajectory text before it is distilled into a
// note or persisted to the graph store.
type BuiltinConfig struct {
	DefaultTenant *TenantConfig
	Collaborators *CollaboratorsConfig
	Masking       *MaskingConfig
	CodeMaskers   []string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized)
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		DefaultTenant: initBuiltinDefaultTenant(),
		Collaborators: DefaultCollaboratorsConfig(),
		Masking:       initBuiltinMasking(),
		CodeMaskers:   initBuiltinCodeMaskers(),
	}
}

func initBuiltinDefaultTenant() *TenantConfig {
	defaults := DefaultDefaults()
	return &TenantConfig{
		Budget: &BudgetConfig{
			DailyLimit:           1_000_000,
			HourlyLimit:          200_000,
			WarningThresholdPct:  0.75,
			CriticalThresholdPct: 0.9,
			ExhaustedAction:      "reject",
		},
		Compressor: defaults.Compressor,
		Approval:   defaults.Approval,
		Policy:     defaults.Policy,
	}
}

func initBuiltinMasking() *MaskingConfig {
	return &MaskingConfig{
		Enabled:       true,
		PatternGroups: []string{"secrets"},
		Patterns:      []string{"api_key", "token", "private_key"},
		CustomPatterns: []MaskingPattern{
			{
				Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
				Replacement: `"api_key": "[MASKED_API_KEY]"`,
				Description: "API keys",
			},
			{
				Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
				Replacement: `"token": "[MASKED_TOKEN]"`,
				Description: "Access tokens",
			},
			{
				Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
				Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
				Description: "Private keys",
			},
			{
				Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
				Replacement: `[MASKED_CERTIFICATE]`,
				Description: "SSL/TLS certificates and PEM-encoded key material",
			},
		},
	}
}

// initBuiltinCodeMaskers returns names of code-based maskers for complex
// masking scenarios requiring structural parsing rather than a regex.
// Each name must match a Masker registered in pkg/masking/service.go.
func initBuiltinCodeMaskers() []string {
	return nil
}
