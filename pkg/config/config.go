package config

// Config is the umbrella configuration object that encapsulates
// all registries, defaults, and configuration state.
// This is the primary object returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults, applied to any tenant section left unset.
	Defaults *Defaults

	// Per-tenant component configuration.
	TenantRegistry *TenantRegistry

	// Collaborator endpoints (LLM, vector backend, knowledge repo),
	// shared across tenants.
	Collaborators *CollaboratorsConfig

	Queue            *QueueConfig
	Slack            *SlackConfig
	Retention        *RetentionConfig
	WSGateway        *WSGatewayConfig
	DashboardURL     string
	AllowedWSOrigins []string
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration
type ConfigStats struct {
	Tenants int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Tenants: c.TenantRegistry.Len(),
	}
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetTenant retrieves a tenant's configuration by ID.
// This is a convenience method that wraps TenantRegistry.Get().
func (c *Config) GetTenant(tenantID string) (*TenantConfig, error) {
	return c.TenantRegistry.Get(tenantID)
}
