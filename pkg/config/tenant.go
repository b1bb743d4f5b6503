package config

import (
	"fmt"
	"sync"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

// BudgetConfig is the YAML-bound shape of a tenant's per-layer token
// allowance, mirroring models.Budget field for field. The two
// thresholds are fractions in (0,1) here and percentages in
// models.Budget; ToBudget scales them.
type BudgetConfig struct {
	DailyLimit           uint64                        `yaml:"daily_limit" validate:"required"`
	HourlyLimit          uint64                        `yaml:"hourly_limit" validate:"required"`
	PerLayerLimits       map[models.MemoryLayer]uint64 `yaml:"per_layer_limits,omitempty"`
	WarningThresholdPct  float64                       `yaml:"warning_threshold_pct" validate:"required,gt=0,lt=1"`
	CriticalThresholdPct float64                       `yaml:"critical_threshold_pct" validate:"required,gt=0,lt=1"`
	ExhaustedAction      models.ExhaustedAction        `yaml:"exhausted_action,omitempty"`
}

// ToBudget resolves a BudgetConfig into the runtime models.Budget for a
// given tenant.
func (b *BudgetConfig) ToBudget(tenantID string) models.Budget {
	return models.Budget{
		TenantID:             tenantID,
		DailyLimit:           b.DailyLimit,
		HourlyLimit:          b.HourlyLimit,
		PerLayerLimits:       b.PerLayerLimits,
		WarningThresholdPct:  b.WarningThresholdPct * 100,
		CriticalThresholdPct: b.CriticalThresholdPct * 100,
		ExhaustedAction:      b.ExhaustedAction,
	}
}

// CompressorConfig configures the hierarchical context compressor for a
// tenant.
type CompressorConfig struct {
	BaseTokenBudget             int     `yaml:"base_token_budget" validate:"required,min=1"`
	EnableInheritance           bool    `yaml:"enable_inheritance"`
	InheritanceCompressionRatio float64 `yaml:"inheritance_compression_ratio,omitempty" validate:"omitempty,gt=0,lt=1"`
	MinTokensPerLayer           int     `yaml:"min_tokens_per_layer,omitempty" validate:"omitempty,min=1"`
}

// ApprovalConfig configures the governance workflow for a tenant.
type ApprovalConfig struct {
	Mode               models.ApprovalMode `yaml:"mode" validate:"required"`
	RequiredApprovals  int                 `yaml:"required_approvals" validate:"required,min=1"`
	TimeoutHours       int                 `yaml:"timeout_hours,omitempty" validate:"omitempty,min=1"`
	AutoApproveLowRisk bool                `yaml:"auto_approve_low_risk"`
}

// PolicyConfig configures the Cedar policy conflict detector for a
// tenant.
type PolicyConfig struct {
	// StrictMode is loaded, defaulted and merged with the tenant's other
	// settings, but no package outside pkg/config reads it: the conflict
	// detector's Warning entries are always advisory and never affect
	// Result.Valid.
	StrictMode bool `yaml:"strict_mode"`
}

// TenantConfig bundles every per-tenant component configuration.
// Initialize fills any nil section from the built-in default tenant
// (see mergeTenants).
type TenantConfig struct {
	Budget     *BudgetConfig     `yaml:"budget,omitempty"`
	Compressor *CompressorConfig `yaml:"compressor,omitempty"`
	Approval   *ApprovalConfig   `yaml:"approval,omitempty"`
	Policy     *PolicyConfig     `yaml:"policy,omitempty"`
}

// TenantRegistry stores per-tenant configuration in memory with
// thread-safe access: a defensively-copied map guarded by an RWMutex,
// with Get/GetAll/Has/Len accessors.
type TenantRegistry struct {
	tenants map[string]*TenantConfig
	mu      sync.RWMutex
}

// NewTenantRegistry creates a new tenant registry from a resolved
// tenant map (defensive copy to prevent external mutation).
func NewTenantRegistry(tenants map[string]*TenantConfig) *TenantRegistry {
	copied := make(map[string]*TenantConfig, len(tenants))
	for k, v := range tenants {
		copied[k] = v
	}
	return &TenantRegistry{tenants: copied}
}

// Get retrieves a tenant's configuration by ID (thread-safe).
func (r *TenantRegistry) Get(tenantID string) (*TenantConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, exists := r.tenants[tenantID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	return tenant, nil
}

// GetAll returns all tenant configurations (thread-safe, returns copy).
func (r *TenantRegistry) GetAll() map[string]*TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*TenantConfig, len(r.tenants))
	for k, v := range r.tenants {
		result[k] = v
	}
	return result
}

// Has checks if a tenant exists in the registry (thread-safe).
func (r *TenantRegistry) Has(tenantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tenants[tenantID]
	return exists
}

// Len returns the number of tenants in the registry (thread-safe).
func (r *TenantRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}
