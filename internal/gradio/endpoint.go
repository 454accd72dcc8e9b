// Package gradio connects to remote Gradio spaces that expose an MCP
// surface, discovers their tools, and re-exposes them as local proxy tools.
// Endpoint resolution, schema translation, and name generation are pure;
// only the connector itself performs I/O.
package gradio

import (
	"strings"

	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// Endpoint is one candidate remote tool provider, resolved per request from
// settings and request parameters. It is never persisted.
type Endpoint struct {
	// ID is the canonical "owner/space" identity.
	ID string

	// Name is a human-readable label, defaulting to the space part of ID.
	Name string

	// Subdomain is the *.hf.space host label the endpoint is served from.
	Subdomain string

	// Private marks namespaced (user-scoped) spaces. It changes the
	// visibility bit in generated proxy tool names.
	Private bool
}

// BaseURL returns the https origin of the endpoint.
func (e Endpoint) BaseURL() string {
	return "https://" + e.Subdomain + ".hf.space"
}

// SSEURL returns the MCP handshake/invocation endpoint.
func (e Endpoint) SSEURL() string {
	return e.BaseURL() + "/gradio_api/mcp/sse"
}

// SchemaURL returns the tool schema introspection endpoint.
func (e Endpoint) SchemaURL() string {
	return e.BaseURL() + "/gradio_api/mcp/schema"
}

// ResolveEndpoints merges settings-derived endpoints with request-parameter
// ids into a deduplicated candidate list. An id must contain exactly one
// "/" separator with non-empty halves; anything else has no derivable
// address and is dropped with a diagnostic, never an error.
func ResolveEndpoints(fromSettings []settings.GradioEndpoint, requested []string) []Endpoint {
	out := make([]Endpoint, 0, len(fromSettings)+len(requested))
	seen := make(map[string]bool)

	for _, g := range fromSettings {
		ep, ok := endpointFromSettings(g)
		if !ok {
			logging.Debug("GradioConnector", "Dropping settings endpoint %q: no derivable address", g.ID)
			continue
		}
		if seen[ep.ID] {
			continue
		}
		seen[ep.ID] = true
		out = append(out, ep)
	}

	for _, id := range requested {
		owner, space, ok := splitEndpointID(id)
		if !ok {
			logging.Debug("GradioConnector", "Dropping requested endpoint %q: want exactly one owner/space separator", id)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Endpoint{
			ID:        id,
			Name:      space,
			Subdomain: DeriveSubdomain(owner, space),
		})
	}

	return out
}

func endpointFromSettings(g settings.GradioEndpoint) (Endpoint, bool) {
	owner, space, ok := splitEndpointID(g.ID)
	if !ok {
		return Endpoint{}, false
	}
	ep := Endpoint{
		ID:        g.ID,
		Name:      g.Name,
		Subdomain: g.Subdomain,
		Private:   g.Private,
	}
	if ep.Name == "" {
		ep.Name = space
	}
	if ep.Subdomain == "" {
		ep.Subdomain = DeriveSubdomain(owner, space)
	}
	return ep, true
}

func splitEndpointID(id string) (owner, space string, ok bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// DeriveSubdomain folds an owner/space pair into the hosting subdomain the
// way the space runtime does: lowercase, with separator characters mapped
// to hyphens.
func DeriveSubdomain(owner, space string) string {
	return foldHostLabel(owner) + "-" + foldHostLabel(space)
}

func foldHostLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
