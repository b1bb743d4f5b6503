package config

import "time"

// MetaAgentConfig configures the build/test/improve loop: iteration
// cap, the overall time budget, and the quality gates run before a
// commit decision.
type MetaAgentConfig struct {
	MaxIterations          uint32        `yaml:"max_iterations,omitempty" validate:"omitempty,min=1"`
	TimeBudgetMinutes      int           `yaml:"time_budget_minutes,omitempty" validate:"omitempty,min=1"`
	WarningPercent         float64       `yaml:"warning_percent,omitempty" validate:"omitempty,gt=0,lte=100"`
	RequireAllQualityGates bool          `yaml:"require_all_quality_gates"`
	LinterTimeout          time.Duration `yaml:"linter_timeout,omitempty"`
	CoverageThresholdPct   float64       `yaml:"coverage_threshold_pct,omitempty" validate:"omitempty,gt=0,lte=100"`
}

// DefaultMetaAgentConfig matches pkg/metaagent's own package defaults
// for the iteration cap and time budget (DefaultConfig,
// DefaultTimeBudgetConfig) and for the linter timeout
// (DefaultLinterConfig); its coverage threshold of 70 is lower than
// DefaultCoverageConfig's 80.
func DefaultMetaAgentConfig() *MetaAgentConfig {
	return &MetaAgentConfig{
		MaxIterations:          10,
		TimeBudgetMinutes:      30,
		WarningPercent:         80,
		RequireAllQualityGates: false,
		LinterTimeout:          2 * time.Minute,
		CoverageThresholdPct:   70,
	}
}
