package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfigForValidatorTests() *Config {
	return &Config{
		Queue:         DefaultQueueConfig(),
		Collaborators: DefaultCollaboratorsConfig(),
		Defaults:      DefaultDefaults(),
		Slack:         &SlackConfig{Enabled: false},
		TenantRegistry: NewTenantRegistry(map[string]*TenantConfig{
			"acme": {
				Budget:     &BudgetConfig{DailyLimit: 100, HourlyLimit: 10, WarningThresholdPct: 0.7, CriticalThresholdPct: 0.9},
				Compressor: &CompressorConfig{BaseTokenBudget: 8000},
				Approval:   &ApprovalConfig{Mode: "single", RequiredApprovals: 1},
			},
		}),
	}
}

func TestValidateAll_ValidConfigPasses(t *testing.T) {
	v := NewValidator(validConfigForValidatorTests())
	assert.NoError(t, v.ValidateAll())
}

func TestValidateCollaborators_MissingLLMURL(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.Collaborators.LLM.BaseURL = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collaborators.llm.base_url")
}

func TestValidateBudget_WarningAboveCriticalRejected(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Budget: &BudgetConfig{DailyLimit: 100, HourlyLimit: 10, WarningThresholdPct: 0.95, CriticalThresholdPct: 0.9}},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warning_threshold_pct")
}

func TestValidateBudget_InvalidExhaustedAction(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Budget: &BudgetConfig{
			DailyLimit: 100, HourlyLimit: 10,
			WarningThresholdPct: 0.7, CriticalThresholdPct: 0.9,
			ExhaustedAction: "explode",
		}},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateCompressor_ZeroTokenBudgetRejected(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Compressor: &CompressorConfig{BaseTokenBudget: 0}},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_token_budget")
}

func TestValidateApproval_UnknownModeRejected(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Approval: &ApprovalConfig{Mode: "democracy", RequiredApprovals: 1}},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateApproval_ZeroRequiredApprovalsRejected(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {Approval: &ApprovalConfig{Mode: "single", RequiredApprovals: 0}},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required_approvals")
}

func TestValidateDefaults_DecayWeightsMustSumToOne(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.Defaults.Decay = &DecayConfig{RecencyWeight: 0.5, FrequencyWeight: 0.5, AgeWeight: 0.5}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decay weights")
}

func TestValidateSlack_EnabledWithoutChannelRejected(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.Slack = &SlackConfig{Enabled: true}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack.channel")
}

func TestValidateSlack_EnabledWithChannelPasses(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.Slack = &SlackConfig{Enabled: true, Channel: "#governance"}

	assert.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateTenants_NilSectionsAreValid(t *testing.T) {
	cfg := validConfigForValidatorTests()
	cfg.TenantRegistry = NewTenantRegistry(map[string]*TenantConfig{
		"acme": {},
	})

	assert.NoError(t, NewValidator(cfg).ValidateAll())
}
