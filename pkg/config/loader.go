package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AeternaYAMLConfig represents the complete aeterna.yaml file structure:
// per-tenant component overrides, shared collaborator endpoints, system
// infrastructure settings, system-wide defaults, and worker pool tuning.
type AeternaYAMLConfig struct {
	System        *SystemYAMLConfig        `yaml:"system"`
	Tenants       map[string]*TenantConfig `yaml:"tenants"`
	Collaborators *CollaboratorsConfig     `yaml:"collaborators"`
	Defaults      *Defaults                `yaml:"defaults"`
	Queue         *QueueConfig             `yaml:"queue"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL     string               `yaml:"dashboard_url"`
	AllowedWSOrigins []string             `yaml:"allowed_ws_origins"`
	Slack            *SlackYAMLConfig     `yaml:"slack"`
	Retention        *RetentionConfig     `yaml:"retention"`
	WSGateway        *WSGatewayYAMLConfig `yaml:"ws_gateway"`
}

// SlackYAMLConfig holds Slack notification settings from YAML.
type SlackYAMLConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

// WSGatewayYAMLConfig holds WebSocket gateway settings from YAML.
type WSGatewayYAMLConfig struct {
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds,omitempty"`
	HeartbeatTTLSeconds int      `yaml:"heartbeat_ttl_seconds,omitempty"`
	AllowedOrigins      []string `yaml:"allowed_origins,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load aeterna.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined tenant configurations
//  5. Build the tenant registry
//  6. Resolve system-wide defaults and infrastructure settings
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "tenants", stats.Tenants)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	yamlConfig, err := loader.loadAeternaYAML()
	if err != nil {
		return nil, NewLoadError("aeterna.yaml", err)
	}

	builtin := GetBuiltinConfig()

	tenants := mergeTenants(builtin.DefaultTenant, yamlConfig.Tenants)
	tenantRegistry := NewTenantRegistry(tenants)

	collaborators := mergeCollaborators(builtin.Collaborators, yamlConfig.Collaborators)

	defaults := yamlConfig.Defaults
	if defaults == nil {
		defaults = DefaultDefaults()
	}

	queueConfig := DefaultQueueConfig()
	if yamlConfig.Queue != nil {
		if err := mergo.Merge(queueConfig, yamlConfig.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	slackCfg := resolveSlackConfig(yamlConfig.System)
	retentionCfg := resolveRetentionConfig(yamlConfig.System)
	wsGatewayCfg := resolveWSGatewayConfig(yamlConfig.System)
	dashboardURL := resolveDashboardURL(yamlConfig.System)
	allowedWSOrigins := resolveAllowedWSOrigins(yamlConfig.System)

	return &Config{
		configDir:        configDir,
		Defaults:         defaults,
		Queue:            queueConfig,
		Slack:            slackCfg,
		Retention:        retentionCfg,
		WSGateway:        wsGatewayCfg,
		DashboardURL:     dashboardURL,
		AllowedWSOrigins: allowedWSOrigins,
		TenantRegistry:   tenantRegistry,
		Collaborators:    collaborators,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand {{.VAR}} placeholders against the process environment.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadAeternaYAML() (*AeternaYAMLConfig, error) {
	var config AeternaYAMLConfig

	config.Tenants = make(map[string]*TenantConfig)

	if err := l.loadYAML("aeterna.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// resolveSlackConfig resolves Slack configuration from system YAML, applying defaults.
func resolveSlackConfig(sys *SystemYAMLConfig) *SlackConfig {
	cfg := &SlackConfig{
		Enabled:  false,
		TokenEnv: "SLACK_BOT_TOKEN",
	}

	if sys == nil || sys.Slack == nil {
		return cfg
	}

	s := sys.Slack
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	if s.TokenEnv != "" {
		cfg.TokenEnv = s.TokenEnv
	}
	if s.Channel != "" {
		cfg.Channel = s.Channel
	}

	return cfg
}

// resolveWSGatewayConfig resolves WebSocket gateway configuration from
// system YAML, applying pkg/wsgateway's own defaults.
func resolveWSGatewayConfig(sys *SystemYAMLConfig) *WSGatewayConfig {
	cfg := DefaultWSGatewayConfig()

	if sys == nil || sys.WSGateway == nil {
		return cfg
	}

	w := sys.WSGateway
	if w.WriteTimeoutSeconds > 0 {
		cfg.WriteTimeoutSeconds = w.WriteTimeoutSeconds
	}
	if w.HeartbeatTTLSeconds > 0 {
		cfg.HeartbeatTTLSeconds = w.HeartbeatTTLSeconds
	}
	if len(w.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = w.AllowedOrigins
	}

	return cfg
}

// resolveDashboardURL resolves the dashboard base URL from system YAML, applying defaults.
func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

// resolveRetentionConfig resolves retention configuration from system YAML, applying defaults.
func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()

	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.SessionRetentionDays > 0 {
		cfg.SessionRetentionDays = r.SessionRetentionDays
	}
	if r.EventTTL > 0 {
		cfg.EventTTL = r.EventTTL
	}
	if r.CleanupInterval > 0 {
		cfg.CleanupInterval = r.CleanupInterval
	}

	return cfg
}

// resolveAllowedWSOrigins returns additional WebSocket origin patterns from system YAML.
func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}
