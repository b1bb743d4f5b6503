package config

// Defaults contains system-wide fallback configurations applied to any
// tenant that does not override a given section, one section per
// component (pkg/budget, pkg/compressor, pkg/cachedecay, pkg/sync,
// pkg/metaagent, pkg/notes, pkg/approval).
type Defaults struct {
	Budget     *BudgetConfig     `yaml:"budget,omitempty"`
	Compressor *CompressorConfig `yaml:"compressor,omitempty"`
	Decay      *DecayConfig      `yaml:"decay,omitempty"`
	Sync       *SyncConfig       `yaml:"sync,omitempty"`
	MetaAgent  *MetaAgentConfig  `yaml:"meta_agent,omitempty"`
	Notes      *NotesConfig      `yaml:"notes,omitempty"`
	Approval   *ApprovalConfig   `yaml:"approval,omitempty"`
	Policy     *PolicyConfig     `yaml:"policy,omitempty"`
	Masking    *MaskingConfig    `yaml:"masking,omitempty"`
}

// DefaultDefaults returns the system-wide fallback used when no config
// file supplies one. Its compressor section (8000-token base budget,
// 200 tokens per layer) is larger than pkg/compressor.DefaultConfig,
// and it leaves Budget nil.
func DefaultDefaults() *Defaults {
	return &Defaults{
		Compressor: &CompressorConfig{
			BaseTokenBudget:             8000,
			EnableInheritance:           true,
			InheritanceCompressionRatio: 0.5,
			MinTokensPerLayer:           200,
		},
		Decay:     DefaultDecayConfig(),
		Sync:      &SyncConfig{StalenessThresholdMinutes: 60},
		MetaAgent: DefaultMetaAgentConfig(),
		Notes:     DefaultNotesConfig(),
		Approval: &ApprovalConfig{
			Mode:              "single",
			RequiredApprovals: 1,
			TimeoutHours:      24,
		},
		Policy: &PolicyConfig{StrictMode: false},
	}
}

// DefaultDecayConfig mirrors pkg/cachedecay.DefaultWeights and
// DefaultEvictionThreshold.
func DefaultDecayConfig() *DecayConfig {
	return &DecayConfig{
		RecencyWeight:     0.4,
		FrequencyWeight:   0.4,
		AgeWeight:         0.2,
		EvictionThreshold: 0.1,
	}
}

// ApplyDefaults fills any nil section of a TenantConfig from d.
func (d *Defaults) ApplyDefaults(t *TenantConfig) {
	if t.Budget == nil {
		t.Budget = d.Budget
	}
	if t.Compressor == nil {
		t.Compressor = d.Compressor
	}
	if t.Approval == nil {
		t.Approval = d.Approval
	}
	if t.Policy == nil {
		t.Policy = d.Policy
	}
}
