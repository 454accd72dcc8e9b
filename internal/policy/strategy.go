package policy

import (
	"fmt"
	"net/http"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// Header names a caller can use to steer tool selection. Transports also
// fold the equivalent query parameters into these before selection.
const (
	HeaderBouquet = "X-MCP-Bouquet"
	HeaderMix     = "X-MCP-Mix"
)

// Strategy selects the enabled tool set for a request. It is immutable
// after construction and safe for concurrent use; Select is a pure function
// of its Input.
type Strategy struct {
	bouquets       map[string][]string
	mixes          map[string][]string
	known          []string
	rules          []Rule
	impliedEnabled bool
	defaultBouquet string
}

// NewStrategy builds a strategy with the default preset tables, honoring
// the policy configuration (server-side default bouquet, implied-tool gate).
func NewStrategy(cfg config.PolicyConfig) *Strategy {
	return NewStrategyWithTables(
		DefaultBouquets(),
		DefaultMixes(),
		hubtools.AllToolIDs(),
		DefaultRules(),
		cfg.ImpliedToolsEnabled(),
		cfg.DefaultBouquet,
	)
}

// NewStrategyWithTables builds a strategy from explicit tables. Tests and
// embedders use this to supply their own presets.
func NewStrategyWithTables(bouquets, mixes map[string][]string, known []string, rules []Rule, impliedEnabled bool, defaultBouquet string) *Strategy {
	return &Strategy{
		bouquets:       bouquets,
		mixes:          mixes,
		known:          known,
		rules:          rules,
		impliedEnabled: impliedEnabled,
		defaultBouquet: defaultBouquet,
	}
}

// ParseInput extracts the selection-relevant fields from request headers.
// The server-side default bouquet applies only when the caller named none.
func (s *Strategy) ParseInput(headers http.Header) Input {
	in := Input{
		Bouquet: headers.Get(HeaderBouquet),
		Mix:     headers.Get(HeaderMix),
	}
	if in.Bouquet == "" {
		in.Bouquet = s.defaultBouquet
	}
	return in
}

// Select picks the enabled tool set. Precedence is total and first match
// wins: bouquet override, mix, resolved settings, fallback.
func (s *Strategy) Select(in Input) Result {
	result := s.selectBase(in)
	result.EnabledTools = s.applyImpliedRules(result.EnabledTools)
	return result
}

func (s *Strategy) selectBase(in Input) Result {
	// 1. Bouquet override wins outright when present and recognized.
	if in.Bouquet != "" {
		if tools, ok := s.bouquets[in.Bouquet]; ok {
			return Result{
				Mode:         ModeBouquetOverride,
				EnabledTools: dedup(tools),
				Reason:       in.Bouquet,
			}
		}
		logging.Debug("ToolSelection", "Ignoring unrecognized bouquet %q", in.Bouquet)
	}

	base, baseMode, baseReason := s.resolveBase(in)

	// 2. Mix: recognized preset unioned with resolved base settings.
	if in.Mix != "" && base != nil {
		if preset, ok := s.mixes[in.Mix]; ok {
			return Result{
				Mode:         ModeMix,
				EnabledTools: dedup(append(append([]string{}, base.EnabledTools...), preset...)),
				Gradios:      base.Gradios,
				Reason:       fmt.Sprintf("mix %q over %s", in.Mix, baseReason),
			}
		}
		logging.Debug("ToolSelection", "Ignoring unrecognized mix %q", in.Mix)
	}

	// 3. Resolved settings alone.
	if base != nil {
		return Result{
			Mode:         baseMode,
			EnabledTools: dedup(base.EnabledTools),
			Gradios:      base.Gradios,
			Reason:       baseReason,
		}
	}

	// 4. Fallback: nothing resolved, enable everything. Degraded state,
	// audit-relevant.
	logging.Warn("ToolSelection", "No settings resolved by any path, enabling all %d known tools", len(s.known))
	return Result{
		Mode:         ModeFallback,
		EnabledTools: dedup(s.known),
		Reason:       "no settings resolved",
	}
}

// resolveBase picks the base settings for the mix and settings branches.
// Caller-supplied settings take precedence over provider-fetched ones.
func (s *Strategy) resolveBase(in Input) (*settings.Settings, Mode, string) {
	if in.Supplied != nil {
		return in.Supplied, ModeInternalSettings, "caller-supplied settings"
	}
	if in.Resolved != nil {
		return in.Resolved, ModeExternalSettings, "provider settings"
	}
	return nil, "", ""
}

// applyImpliedRules force-enables secondary tools per the rule table.
func (s *Strategy) applyImpliedRules(enabled []string) []string {
	if !s.impliedEnabled {
		return enabled
	}
	present := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		present[id] = true
	}
	for _, rule := range s.rules {
		if present[rule.Primary] && !present[rule.Implied] {
			enabled = append(enabled, rule.Implied)
			present[rule.Implied] = true
			logging.Debug("ToolSelection", "Rule table enabled %s (implied by %s)", rule.Implied, rule.Primary)
		}
	}
	return enabled
}

// KnownToolIDs returns the full tool id universe this strategy falls back to.
func (s *Strategy) KnownToolIDs() []string {
	return append([]string{}, s.known...)
}

// Bouquets returns the preset table for introspection (CLI listing).
func (s *Strategy) Bouquets() map[string][]string {
	return s.bouquets
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
