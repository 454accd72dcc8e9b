// Package policy decides, per request, which tool ids are enabled. The
// decision engine is a pure function over its inputs; resolving settings
// from the provider happens outside and is handed in pre-fetched.
package policy

import (
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"
)

// Mode identifies which precedence branch produced a selection. Exactly one
// mode is chosen for every request; the precedence order is total.
type Mode string

const (
	// ModeBouquetOverride means a recognized server preset won outright.
	ModeBouquetOverride Mode = "bouquet-override"

	// ModeMix means a preset was unioned with the user's own tools.
	ModeMix Mode = "mix"

	// ModeExternalSettings means provider-fetched settings were used alone.
	ModeExternalSettings Mode = "external-settings"

	// ModeInternalSettings means caller-supplied settings were used alone.
	ModeInternalSettings Mode = "internal-settings"

	// ModeFallback means nothing resolved and every known tool is enabled.
	// This is a degraded, audit-relevant state and is logged as a warning.
	ModeFallback Mode = "fallback"
)

// Result is the outcome of one selection. EnabledTools is deduplicated and
// order-stable; Gradios carries the remote endpoints that came with the
// winning settings, if any.
type Result struct {
	Mode         Mode
	EnabledTools []string
	Gradios      []settings.GradioEndpoint
	Reason       string
}

// Bouquet reports whether the selection was a bouquet override and which
// preset won. The proxy composition uses this to suppress remote
// augmentation for any bouquet other than "all".
func (r Result) Bouquet() (string, bool) {
	if r.Mode != ModeBouquetOverride {
		return "", false
	}
	return r.Reason, true
}

// Input is everything the strategy looks at. Transports fold their own
// header/query conventions into this before calling Select.
type Input struct {
	// Bouquet names a server preset requested by the caller; empty for none.
	Bouquet string

	// Mix names a preset to union with the user's own tools; empty for none.
	Mix string

	// Supplied is caller-provided settings (internal path), nil if absent.
	Supplied *settings.Settings

	// Resolved is provider-fetched settings (external path), nil when the
	// provider degraded or was never consulted.
	Resolved *settings.Settings
}

// Rule force-enables a secondary tool whenever a primary tool is enabled.
type Rule struct {
	Primary string
	Implied string
}
