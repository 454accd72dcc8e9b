package transport

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// StdioTransport carries MCP over stdin/stdout. There is exactly one
// implicit session for the process lifetime; no reconnection, no sweep.
type StdioTransport struct {
	cfg     *config.Config
	factory *server.Factory
	metrics *metrics.Registry

	mu       sync.Mutex
	sess     *session
	cancel   context.CancelFunc
	running  bool
	cleaned  bool
	in       io.Reader
	out      io.Writer
}

// NewStdioTransport builds the stdio transport reading from os.Stdin and
// writing to os.Stdout.
func NewStdioTransport(cfg *config.Config, factory *server.Factory, reg *metrics.Registry) *StdioTransport {
	return &StdioTransport{
		cfg:     cfg,
		factory: factory,
		metrics: reg,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// WithStreams redirects the transport's streams. Tests use this.
func (t *StdioTransport) WithStreams(in io.Reader, out io.Writer) *StdioTransport {
	t.in = in
	t.out = out
	return t
}

// Initialize builds the composed server once and starts the stdio listen
// loop. Client info lands on the implicit session via the explicit
// on-initialized callback.
func (t *StdioTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	sess := newSession(uuid.NewString(), config.TransportStdio, nil)
	inst := t.factory.Build(ctx, server.BuildRequest{
		OnClientInfo: func(name, version string) {
			sess.setClientInfo(name, version)
			sess.touch()
			logging.Debug("StdioTransport", "Client identified as %s/%s", name, version)
		},
	})
	sess.instance = inst
	t.sess = sess
	t.metrics.RecordConnection()

	listenCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.running = true

	stdioServer := mcpserver.NewStdioServer(inst.MCP)
	go func() {
		if err := stdioServer.Listen(listenCtx, t.in, t.out); err != nil && listenCtx.Err() == nil {
			logging.Error("StdioTransport", err, "Stdio listen loop ended")
		}
	}()

	logging.Info("StdioTransport", "Serving MCP on stdio")
	return nil
}

// Shutdown stops the listen loop. In-flight handling ends when the
// context driving Listen is cancelled.
func (t *StdioTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.running = false
	return nil
}

// Cleanup tears down the implicit session. Idempotent.
func (t *StdioTransport) Cleanup() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cleaned {
		return nil
	}
	t.cleaned = true
	t.running = false
	if t.cancel != nil {
		t.cancel()
	}
	if t.sess != nil {
		return t.sess.close()
	}
	return nil
}

// ActiveConnectionCount reports 1 while the loop runs, 0 afterwards.
func (t *StdioTransport) ActiveConnectionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return 1
	}
	return 0
}

// Sessions returns the implicit session.
func (t *StdioTransport) Sessions() []SessionInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess == nil {
		return nil
	}
	return []SessionInfo{t.sess.info()}
}
