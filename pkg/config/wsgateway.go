package config

import "time"

// WSGatewayConfig configures the WebSocket protocol gateway: how long
// a single send may block and how long a presence entry survives
// without a heartbeat before the tracker considers it stale. Only the
// write timeout reaches the gateway (cmd/aeterna passes it to
// wsgateway.NewGateway); HeartbeatTTLSeconds is loaded and defaulted but
// not read, and the gateway's presence tracker uses a fixed 2-minute TTL.
type WSGatewayConfig struct {
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	HeartbeatTTLSeconds int      `yaml:"heartbeat_ttl_seconds,omitempty" validate:"omitempty,min=1"`
	AllowedOrigins      []string `yaml:"allowed_origins,omitempty"`
}

// DefaultWSGatewayConfig uses a 5-second write timeout and a 120-second
// heartbeat TTL, the same length as the gateway's fixed presence TTL.
func DefaultWSGatewayConfig() *WSGatewayConfig {
	return &WSGatewayConfig{
		WriteTimeoutSeconds: 5,
		HeartbeatTTLSeconds: 120,
	}
}

// ResolveWriteTimeout returns the configured write timeout, or
// 5 seconds if unset.
func (w *WSGatewayConfig) ResolveWriteTimeout() time.Duration {
	if w == nil || w.WriteTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(w.WriteTimeoutSeconds) * time.Second
}
