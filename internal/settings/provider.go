// Package settings resolves the per-user tool configuration from an
// external provider. Providers never fail loudly: any error degrades to a
// nil result and the selection policy falls back from there.
package settings

import "context"

// GradioEndpoint describes one remote Gradio tool provider as named in the
// user's settings. Endpoints are resolved per request; nothing here is
// persisted by the gateway.
type GradioEndpoint struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Subdomain string `json:"subdomain,omitempty" yaml:"subdomain,omitempty"`
	Private   bool   `json:"private,omitempty" yaml:"private,omitempty"`
}

// Settings is the resolved tool configuration for one user.
type Settings struct {
	EnabledTools []string         `json:"tools" yaml:"tools"`
	Gradios      []GradioEndpoint `json:"gradio,omitempty" yaml:"gradio,omitempty"`
}

// Provider resolves settings for a token. Implementations apply their own
// timeout and return nil (not an error) when resolution fails; the caller
// treats nil as "no settings" and degrades.
type Provider interface {
	GetSettings(ctx context.Context, token string) *Settings
}

// StaticProvider always returns the same settings. Used for caller-supplied
// settings and in tests.
type StaticProvider struct {
	Settings *Settings
}

// GetSettings returns the fixed settings, ignoring the token.
func (p *StaticProvider) GetSettings(ctx context.Context, token string) *Settings {
	return p.Settings
}
