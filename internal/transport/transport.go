// Package transport implements the wire surfaces of the gateway: stdio,
// SSE, stateful streamable HTTP, and stateless HTTP. Each transport is a
// session/connection state machine behind one common contract; each owns
// its session map exclusively.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
)

// Transport is the contract every wire surface implements.
//
// Initialize starts accepting work. Shutdown stops accepting new work but
// lets in-flight handlers finish. Cleanup is the hard stop: it tears down
// every session and resource, is idempotent, and never lets one failing
// sub-resource block the rest.
type Transport interface {
	Initialize(ctx context.Context) error
	Cleanup() error
	Shutdown(ctx context.Context) error
	ActiveConnectionCount() int
	Sessions() []SessionInfo
}

// SessionInfo is the introspection view of one session.
type SessionInfo struct {
	ID            string           `json:"id"`
	Transport     config.Transport `json:"transport"`
	ConnectedAt   time.Time        `json:"connectedAt"`
	LastActivity  time.Time        `json:"lastActivity"`
	ClientName    string           `json:"clientName,omitempty"`
	ClientVersion string           `json:"clientVersion,omitempty"`
	Status        string           `json:"status"`
}

// New builds the transport named by the configuration. An unsupported
// transport kind is the one startup-fatal error in the system.
func New(cfg *config.Config, factory *server.Factory, reg *metrics.Registry) (Transport, error) {
	switch cfg.Server.Transport {
	case config.TransportStdio:
		return NewStdioTransport(cfg, factory, reg), nil
	case config.TransportSSE:
		return NewSSETransport(cfg, factory, reg), nil
	case config.TransportStreamableHTTP:
		return NewStreamableTransport(cfg, factory, reg), nil
	case config.TransportStatelessHTTP:
		return NewStatelessTransport(cfg, factory, reg), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %q", cfg.Server.Transport)
	}
}
