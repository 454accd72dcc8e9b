// Package server builds one MCP protocol-server instance per request or
// session, composing local Hub tools with proxied remote tools according
// to the tool-selection policy.
package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/gradio"
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/policy"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "hf-mcp-server"
	serverVersion = "1.0.0"
)

// Augment is the closed set of remote-augmentation policies a build can
// run under.
type Augment int

const (
	// AugmentUnlessBouquet proxies remote tools unless a bouquet override
	// other than "all" won the selection. This is the default.
	AugmentUnlessBouquet Augment = iota

	// AugmentAlways proxies remote tools regardless of the selection mode.
	AugmentAlways

	// AugmentNever skips remote augmentation; used for pure handshake and
	// local-only builds.
	AugmentNever

	// AugmentDisabledByRequest skips augmentation because the caller
	// explicitly asked for local tools only.
	AugmentDisabledByRequest
)

// BuildRequest carries everything one server build depends on.
type BuildRequest struct {
	// Headers of the originating wire request; selection headers and the
	// bearer token are read from here.
	Headers http.Header

	// Supplied is caller-provided settings, taking precedence over the
	// provider. Nil for the usual provider-resolved path.
	Supplied *settings.Settings

	// GradioIDs are request-parameter-derived endpoint ids, merged with
	// the settings-derived ones.
	GradioIDs []string

	// Augment selects the remote-augmentation policy for this build.
	Augment Augment

	// OnClientInfo is invoked once the MCP handshake reveals the client's
	// name and version. Optional.
	OnClientInfo func(name, version string)
}

// Instance is one composed protocol server plus the remote connections
// backing its proxy tools. The tool registry is immutable once Build
// returns.
type Instance struct {
	MCP         *server.MCPServer
	Selection   policy.Result
	Connections []gradio.Connection
}

// Close tears down the remote connections behind the proxy tools.
func (i *Instance) Close() {
	gradio.CloseAll(i.Connections)
}

// Factory builds server instances. It is immutable after construction and
// safe for concurrent use; all per-request state lives in the Instance.
type Factory struct {
	cfg       *config.Config
	strategy  *policy.Strategy
	provider  settings.Provider
	connector *gradio.Connector
	metrics   *metrics.Registry
	failures  *gradio.FailureLog
	hooks     HookTable
	hubURL    string
}

// NewFactory wires a factory from its collaborators. provider may be nil
// when no external settings source is configured.
func NewFactory(cfg *config.Config, strategy *policy.Strategy, provider settings.Provider, connector *gradio.Connector, reg *metrics.Registry) *Factory {
	return &Factory{
		cfg:       cfg,
		strategy:  strategy,
		provider:  provider,
		connector: connector,
		metrics:   reg,
		failures:  gradio.NewFailureLog(),
		hooks:     DefaultHooks(),
		hubURL:    hubtools.DefaultHubURL,
	}
}

// WithHubURL points local tools at a different Hub API base. Tests use
// this to aim at a local stub.
func (f *Factory) WithHubURL(url string) *Factory {
	f.hubURL = url
	return f
}

// WithHooks replaces the post-registration hook table.
func (f *Factory) WithHooks(hooks HookTable) *Factory {
	f.hooks = hooks
	return f
}

// Build composes one server instance: resolve the enabled tool set,
// register local tools bound to the request token, then augment with
// proxied remote tools per the augmentation policy.
func (f *Factory) Build(ctx context.Context, req BuildRequest) *Instance {
	token := f.resolveToken(req.Headers)

	in := f.strategy.ParseInput(req.Headers)
	in.Supplied = req.Supplied
	if in.Supplied == nil && f.provider != nil {
		in.Resolved = f.provider.GetSettings(ctx, token)
	}
	selection := f.strategy.Select(in)
	logging.Debug("ServerFactory", "Selection mode=%s tools=%d (%s)",
		selection.Mode, len(selection.EnabledTools), selection.Reason)

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(f.initializeHooks(req.OnClientInfo)),
	)

	hubClient := hubtools.NewClient(f.hubURL, token)
	s.AddTools(hubtools.ForIDs(selection.EnabledTools, hubClient)...)

	inst := &Instance{MCP: s, Selection: selection}
	if !shouldAugment(req.Augment, selection) {
		return inst
	}

	candidates := gradio.ResolveEndpoints(selection.Gradios, req.GradioIDs)
	if len(candidates) == 0 {
		return inst
	}

	conns := f.connector.ConnectAll(ctx, candidates, token)
	s.AddTools(gradio.ProxyTools(conns, gradio.ProxyOptions{
		Metrics:          f.metrics,
		Failures:         f.failures,
		CallTimeout:      f.cfg.Gradio.CallTimeout(),
		SuppressDefaults: f.cfg.Gradio.SuppressDefaults,
	})...)
	inst.Connections = conns

	f.runHooks(s, conns)
	return inst
}

// resolveToken extracts the pass-through bearer token, falling back to the
// environment default. The token is never validated here.
func (f *Factory) resolveToken(headers http.Header) string {
	if headers != nil {
		auth := headers.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return os.Getenv(config.DefaultTokenEnv)
}

// initializeHooks wires the explicit on-initialized callback: client info
// is captured at handshake time, never by intercepting dispatch.
func (f *Factory) initializeHooks(onClientInfo func(name, version string)) *server.Hooks {
	hooks := &server.Hooks{}
	reg := f.metrics
	hooks.AddAfterInitialize(func(ctx context.Context, id any, message *mcp.InitializeRequest, result *mcp.InitializeResult) {
		if message == nil {
			return
		}
		info := message.Params.ClientInfo
		if reg != nil {
			reg.RecordClient(info.Name, info.Version)
		}
		if onClientInfo != nil {
			onClientInfo(info.Name, info.Version)
		}
	})
	return hooks
}

func shouldAugment(a Augment, selection policy.Result) bool {
	switch a {
	case AugmentAlways:
		return true
	case AugmentNever, AugmentDisabledByRequest:
		return false
	default:
		if name, ok := selection.Bouquet(); ok && name != policy.BouquetAll {
			return false
		}
		return true
	}
}
