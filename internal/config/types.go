package config

import (
	"fmt"
	"time"
)

// Transport identifies a wire transport kind. An unrecognized kind at
// startup is the only process-fatal configuration error; everything else
// degrades per request.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
	TransportStatelessHTTP  Transport = "stateless-http"
)

// DefaultTokenEnv is the environment variable consulted when a request
// carries no Authorization header. The token is passed through to outbound
// calls, never validated here.
const DefaultTokenEnv = "HF_TOKEN"

// Config is the top-level configuration for the gateway.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Policy   PolicyConfig   `yaml:"policy"`
	Settings SettingsConfig `yaml:"settings"`
	Gradio   GradioConfig   `yaml:"gradio"`
}

// ServerConfig defines the wire surface of the gateway.
type ServerConfig struct {
	Host      string    `yaml:"host,omitempty"`      // Host to bind to (default: localhost)
	Port      int       `yaml:"port,omitempty"`      // Port for HTTP transports (default: 3000)
	Transport Transport `yaml:"transport,omitempty"` // One of the Transport* kinds (default: streamable-http)

	// StrictCompliance makes the stateless transport answer GET /mcp with
	// 405 instead of the informational landing page.
	StrictCompliance bool `yaml:"strictCompliance,omitempty"`

	StaleCheckSeconds int `yaml:"staleCheckSeconds,omitempty"` // Sweep interval (default: 30)
	StaleAfterSeconds int `yaml:"staleAfterSeconds,omitempty"` // Idle eviction threshold (default: 60)

	HeartbeatSeconds int `yaml:"heartbeatSeconds,omitempty"` // SSE heartbeat interval (default: 30)
}

// PolicyConfig drives the tool selection strategy.
type PolicyConfig struct {
	DefaultBouquet string `yaml:"defaultBouquet,omitempty"` // Server-side bouquet override, empty for none
	ImpliedTools   *bool  `yaml:"impliedTools,omitempty"`   // Implied-tool rule table gate (default: true)
}

// SettingsConfig configures the external settings provider.
type SettingsConfig struct {
	ProviderURL    string `yaml:"providerUrl,omitempty"`    // Hub settings endpoint
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"` // Provider request timeout (default: 5)
	FilePath       string `yaml:"filePath,omitempty"`       // Optional file-backed settings source
}

// GradioConfig configures the remote endpoint connector.
type GradioConfig struct {
	ConnectTimeoutSeconds int  `yaml:"connectTimeoutSeconds,omitempty"` // Per-endpoint connect+introspect budget (default: 10)
	CallTimeoutSeconds    int  `yaml:"callTimeoutSeconds,omitempty"`    // Per-invocation budget (default: 120)
	SuppressDefaults      bool `yaml:"suppressDefaults,omitempty"`      // Skip optional-with-default schema rewriting
}

// GetDefaultConfig returns the gateway defaults used when no config file is
// present. Every field can be overridden by YAML or environment.
func GetDefaultConfig() Config {
	impliedTools := true
	return Config{
		Server: ServerConfig{
			Host:              "localhost",
			Port:              3000,
			Transport:         TransportStreamableHTTP,
			StaleCheckSeconds: 30,
			StaleAfterSeconds: 60,
			HeartbeatSeconds:  30,
		},
		Policy: PolicyConfig{
			ImpliedTools: &impliedTools,
		},
		Settings: SettingsConfig{
			ProviderURL:    "https://huggingface.co/api/settings/mcp",
			TimeoutSeconds: 5,
		},
		Gradio: GradioConfig{
			ConnectTimeoutSeconds: 10,
			CallTimeoutSeconds:    120,
		},
	}
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP, TransportStatelessHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %q", c.Server.Transport)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	return nil
}

// ImpliedToolsEnabled reports whether the implied-tool rule table is active.
func (c *PolicyConfig) ImpliedToolsEnabled() bool {
	return c.ImpliedTools == nil || *c.ImpliedTools
}

// StaleCheckInterval returns the stale sweep interval.
func (c *ServerConfig) StaleCheckInterval() time.Duration {
	return time.Duration(c.StaleCheckSeconds) * time.Second
}

// StaleAfter returns the idle duration after which a session is evicted.
func (c *ServerConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// HeartbeatInterval returns the SSE heartbeat interval.
func (c *ServerConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// Timeout returns the settings provider request timeout.
func (c *SettingsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectTimeout returns the per-endpoint connect budget.
func (c *GradioConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// CallTimeout returns the per-invocation budget for proxied tool calls.
func (c *GradioConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}
