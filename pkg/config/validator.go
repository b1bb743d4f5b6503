package config

import (
	"fmt"
)

// Validator validates configuration comprehensively with clear error messages
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error)
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := v.validateCollaborators(); err != nil {
		return fmt.Errorf("collaborators validation failed: %w", err)
	}

	if err := v.validateTenants(); err != nil {
		return fmt.Errorf("tenant validation failed: %w", err)
	}

	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}

	if err := v.validateSlack(); err != nil {
		return fmt.Errorf("slack validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}

	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be at least 1, got %d", q.MaxConcurrentSessions)
	}
	if q.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", q.PollInterval)
	}
	if q.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", q.PollIntervalJitter)
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval)
	}
	if q.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive, got %v", q.SessionTimeout)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	if q.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", q.OrphanDetectionInterval)
	}
	if q.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", q.OrphanThreshold)
	}
	if q.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %v", q.HeartbeatInterval)
	}
	if q.HeartbeatInterval >= q.OrphanThreshold {
		return fmt.Errorf("heartbeat_interval must be less than orphan_threshold, got heartbeat=%v threshold=%v", q.HeartbeatInterval, q.OrphanThreshold)
	}

	return nil
}

func (v *Validator) validateCollaborators() error {
	c := v.cfg.Collaborators
	if c == nil {
		return fmt.Errorf("collaborators configuration is nil")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("%w: collaborators.llm.base_url", ErrMissingRequiredField)
	}
	if c.Vector.BaseURL == "" {
		return fmt.Errorf("%w: collaborators.vector.base_url", ErrMissingRequiredField)
	}
	if c.KnowledgeRepoRoot == "" {
		return fmt.Errorf("%w: collaborators.knowledge_repo_root", ErrMissingRequiredField)
	}
	return nil
}

// validateTenants checks every configured tenant's budget, compressor,
// and approval sections for internally-consistent values. A tenant with
// a nil section is valid — cmd/aeterna's buildTenant falls back to
// Defaults for it.
func (v *Validator) validateTenants() error {
	for id, tenant := range v.cfg.TenantRegistry.GetAll() {
		if tenant.Budget != nil {
			if err := v.validateBudget(tenant.Budget); err != nil {
				return NewValidationError("tenant", id, "budget", err)
			}
		}
		if tenant.Compressor != nil {
			if err := v.validateCompressor(tenant.Compressor); err != nil {
				return NewValidationError("tenant", id, "compressor", err)
			}
		}
		if tenant.Approval != nil {
			if err := v.validateApproval(tenant.Approval); err != nil {
				return NewValidationError("tenant", id, "approval", err)
			}
		}
	}
	return nil
}

func (v *Validator) validateBudget(b *BudgetConfig) error {
	if b.DailyLimit == 0 {
		return fmt.Errorf("%w: daily_limit", ErrMissingRequiredField)
	}
	if b.HourlyLimit == 0 {
		return fmt.Errorf("%w: hourly_limit", ErrMissingRequiredField)
	}
	if b.HourlyLimit > b.DailyLimit {
		return fmt.Errorf("hourly_limit (%d) must not exceed daily_limit (%d)", b.HourlyLimit, b.DailyLimit)
	}
	if b.WarningThresholdPct <= 0 || b.WarningThresholdPct >= 1 {
		return fmt.Errorf("warning_threshold_pct must be in (0,1), got %v", b.WarningThresholdPct)
	}
	if b.CriticalThresholdPct <= 0 || b.CriticalThresholdPct >= 1 {
		return fmt.Errorf("critical_threshold_pct must be in (0,1), got %v", b.CriticalThresholdPct)
	}
	if b.WarningThresholdPct >= b.CriticalThresholdPct {
		return fmt.Errorf("warning_threshold_pct (%v) must be less than critical_threshold_pct (%v)", b.WarningThresholdPct, b.CriticalThresholdPct)
	}
	switch b.ExhaustedAction {
	case "", "reject", "queue", "allow_with_warning":
	default:
		return fmt.Errorf("%w: exhausted_action %q", ErrInvalidValue, b.ExhaustedAction)
	}
	return nil
}

func (v *Validator) validateCompressor(c *CompressorConfig) error {
	if c.BaseTokenBudget <= 0 {
		return fmt.Errorf("base_token_budget must be positive, got %d", c.BaseTokenBudget)
	}
	if c.InheritanceCompressionRatio != 0 && (c.InheritanceCompressionRatio <= 0 || c.InheritanceCompressionRatio >= 1) {
		return fmt.Errorf("inheritance_compression_ratio must be in (0,1), got %v", c.InheritanceCompressionRatio)
	}
	if c.MinTokensPerLayer < 0 {
		return fmt.Errorf("min_tokens_per_layer must be non-negative, got %d", c.MinTokensPerLayer)
	}
	return nil
}

func (v *Validator) validateApproval(a *ApprovalConfig) error {
	switch a.Mode {
	case "single", "quorum", "unanimous":
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidValue, a.Mode)
	}
	if a.RequiredApprovals < 1 {
		return fmt.Errorf("required_approvals must be at least 1, got %d", a.RequiredApprovals)
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return fmt.Errorf("defaults configuration is nil")
	}
	if d.Compressor != nil {
		if err := v.validateCompressor(d.Compressor); err != nil {
			return fmt.Errorf("compressor: %w", err)
		}
	}
	if d.Approval != nil {
		if err := v.validateApproval(d.Approval); err != nil {
			return fmt.Errorf("approval: %w", err)
		}
	}
	if d.Decay != nil {
		sum := d.Decay.RecencyWeight + d.Decay.FrequencyWeight + d.Decay.AgeWeight
		if sum != 0 && (sum < 0.99 || sum > 1.01) {
			return fmt.Errorf("decay weights must sum to ~1.0, got %v", sum)
		}
	}
	return nil
}

func (v *Validator) validateSlack() error {
	s := v.cfg.Slack
	if s == nil || !s.Enabled {
		return nil
	}
	if s.Channel == "" {
		return fmt.Errorf("%w: slack.channel (required when slack.enabled is true)", ErrMissingRequiredField)
	}
	return nil
}
