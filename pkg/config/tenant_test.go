package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikokikok/aeterna-sub003/pkg/models"
)

func TestBudgetConfig_ToBudget(t *testing.T) {
	b := &BudgetConfig{
		DailyLimit:           100_000,
		HourlyLimit:          20_000,
		PerLayerLimits:       map[models.MemoryLayer]uint64{models.LayerSession: 5_000},
		WarningThresholdPct:  0.7,
		CriticalThresholdPct: 0.9,
		ExhaustedAction:      models.ExhaustedActionReject,
	}

	budget := b.ToBudget("tenant-a")

	assert.Equal(t, "tenant-a", budget.TenantID)
	assert.Equal(t, uint64(100_000), budget.DailyLimit)
	assert.Equal(t, uint64(20_000), budget.HourlyLimit)
	assert.Equal(t, uint64(5_000), budget.PerLayerLimits[models.LayerSession])
	assert.Equal(t, 70.0, budget.WarningThresholdPct)
	assert.Equal(t, models.ExhaustedActionReject, budget.ExhaustedAction)
}

func TestTenantRegistry_GetKnownTenant(t *testing.T) {
	reg := NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Budget: &BudgetConfig{DailyLimit: 1, HourlyLimit: 1, WarningThresholdPct: 0.5, CriticalThresholdPct: 0.8}},
	})

	tenant, err := reg.Get("acme")
	require.NoError(t, err)
	require.NotNil(t, tenant.Budget)
	assert.Equal(t, uint64(1), tenant.Budget.DailyLimit)
}

func TestTenantRegistry_GetUnknownTenant(t *testing.T) {
	reg := NewTenantRegistry(map[string]*TenantConfig{})

	_, err := reg.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestTenantRegistry_HasAndLen(t *testing.T) {
	reg := NewTenantRegistry(map[string]*TenantConfig{
		"acme":   {},
		"globex": {},
	})

	assert.True(t, reg.Has("acme"))
	assert.False(t, reg.Has("initech"))
	assert.Equal(t, 2, reg.Len())
}

func TestTenantRegistry_GetAllReturnsDefensiveCopy(t *testing.T) {
	reg := NewTenantRegistry(map[string]*TenantConfig{
		"acme": {},
	})

	all := reg.GetAll()
	all["injected"] = &TenantConfig{}

	assert.False(t, reg.Has("injected"), "mutating the returned map must not affect the registry")
}
