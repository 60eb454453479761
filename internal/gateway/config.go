// Package gateway serves the HTTP side of weeekbot: health and readiness
// probes, Prometheus metrics and a WebSocket chat transport that drives the
// same dialog engine as Telegram.
package gateway

// Name is the transport prefix of websocket conversation ids.
const Name = "ws"

// Config holds gateway server configuration including network binding options.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Host is the network interface to bind to (e.g., "127.0.0.1" or "0.0.0.0").
	Host string `yaml:"host"`
	// Port is the TCP port number to listen on.
	Port int `yaml:"port"`
	// AllowAnyOrigin disables the same-origin check on /ws.
	AllowAnyOrigin bool        `yaml:"allow_any_origin"`
	Auth           *AuthConfig `yaml:"auth"`
}

// DefaultConfig returns default gateway configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Host:    "127.0.0.1",
		Port:    9090,
		Auth:    &AuthConfig{Type: AuthTypeNone},
	}
}
