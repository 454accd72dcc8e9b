package gradio

import (
	"context"
	"fmt"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// DialFunc builds an unconnected protocol client for one endpoint. Tests
// substitute fakes here.
type DialFunc func(ep Endpoint, token string) Client

// Connection is the outcome of connecting and introspecting one endpoint.
// Success means a live client and a non-empty tool list; anything else
// carries the error and a nil client.
type Connection struct {
	Endpoint Endpoint
	Ordinal  int
	Client   Client
	Tools    []RemoteTool
	Err      error
}

// OK reports whether the connection succeeded.
func (c Connection) OK() bool {
	return c.Err == nil
}

// Connector turns candidate endpoints into live connections, tolerating
// partial failure. Each connect runs under its own timeout; one slow or
// unreachable endpoint never blocks the others.
type Connector struct {
	dial           DialFunc
	connectTimeout time.Duration
}

// NewConnector builds a connector using the real SSE client.
func NewConnector(cfg config.GradioConfig) *Connector {
	return NewConnectorWithDialer(cfg, func(ep Endpoint, token string) Client {
		return NewSSEClient(ep, token)
	})
}

// NewConnectorWithDialer builds a connector with a custom dialer.
func NewConnectorWithDialer(cfg config.GradioConfig, dial DialFunc) *Connector {
	return &Connector{
		dial:           dial,
		connectTimeout: cfg.ConnectTimeout(),
	}
}

// ConnectAll connects to every candidate concurrently and returns one
// Connection per endpoint, in input order, success or failure. The only
// synchronization point is the aggregate join.
func (c *Connector) ConnectAll(ctx context.Context, endpoints []Endpoint, token string) []Connection {
	conns := make([]Connection, len(endpoints))

	var g errgroup.Group
	for i, ep := range endpoints {
		i, ep := i, ep
		g.Go(func() error {
			conns[i] = c.connect(ctx, ep, i, token)
			return nil
		})
	}
	g.Wait()

	for _, conn := range conns {
		if conn.OK() {
			logging.Debug("GradioConnector", "Connected to %s: %d tools", conn.Endpoint.ID, len(conn.Tools))
		} else {
			logging.Warn("GradioConnector", "Endpoint %s unavailable: %v", conn.Endpoint.ID, conn.Err)
		}
	}
	return conns
}

// connect performs handshake and introspection for one endpoint under the
// per-endpoint budget. On expiry the attempt is abandoned as a local
// failure without touching its siblings.
func (c *Connector) connect(ctx context.Context, ep Endpoint, ordinal int, token string) Connection {
	conn := Connection{Endpoint: ep, Ordinal: ordinal}

	cctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	cl := c.dial(ep, token)
	if err := cl.Initialize(cctx); err != nil {
		cl.Close()
		conn.Err = fmt.Errorf("connect: %w", err)
		return conn
	}

	data, err := cl.Schema(cctx)
	if err != nil {
		cl.Close()
		conn.Err = fmt.Errorf("introspect: %w", err)
		return conn
	}

	tools, err := ParseSchema(data)
	if err != nil {
		cl.Close()
		conn.Err = fmt.Errorf("introspect: %w", err)
		return conn
	}

	conn.Client = cl
	conn.Tools = tools
	return conn
}

// CloseAll tears down the clients of every successful connection.
func CloseAll(conns []Connection) {
	for _, conn := range conns {
		if conn.OK() && conn.Client != nil {
			if err := conn.Client.Close(); err != nil {
				logging.Debug("GradioConnector", "Closing client for %s: %v", conn.Endpoint.ID, err)
			}
		}
	}
}
