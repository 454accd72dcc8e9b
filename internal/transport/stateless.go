package transport

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// StatelessTransport serves every POST with a brand-new server instance
// scoped to exactly that request. There is no session map at all: nothing
// persists between calls, nothing needs sweeping.
type StatelessTransport struct {
	cfg     *config.Config
	factory *server.Factory
	metrics *metrics.Registry

	mu           sync.Mutex
	httpServer   *http.Server
	cleaned      bool
	shuttingDown atomic.Bool
	inflight     atomic.Int64
}

// NewStatelessTransport builds the transport; Initialize starts serving.
func NewStatelessTransport(cfg *config.Config, factory *server.Factory, reg *metrics.Registry) *StatelessTransport {
	return &StatelessTransport{
		cfg:     cfg,
		factory: factory,
		metrics: reg,
	}
}

// Handler returns the transport's HTTP handler for tests and Initialize.
func (t *StatelessTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc("/metrics", metricsHandler(t.metrics, t.Sessions))
	return recoverPanics(mux)
}

// Initialize binds the listener. No sweep: there are no sessions.
func (t *StatelessTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.httpServer != nil {
		return nil
	}
	t.httpServer = newHTTPServer(&t.cfg.Server, t.Handler())

	go func() {
		logging.Info("StatelessTransport", "Serving stateless MCP on http://%s/mcp", t.httpServer.Addr)
		if err := t.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("StatelessTransport", err, "HTTP server error")
		}
	}()
	return nil
}

func (t *StatelessTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		t.handlePost(w, r)
	case http.MethodGet:
		t.handleGet(w, r)
	default:
		// DELETE and everything else: there is no session to terminate.
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
	}
}

func (t *StatelessTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	if t.shuttingDown.Load() {
		writeRPCError(w, http.StatusServiceUnavailable, codeInternalError, "server is shutting down", nil)
		return
	}
	t.inflight.Add(1)
	defer t.inflight.Add(-1)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, "unreadable request body", nil)
		return
	}
	probe := probeMessage(body)
	t.metrics.RecordRequest(probe.Method)
	t.metrics.RecordConnection()

	gradioIDs, augment := gradioRequestOptions(r)
	inst := t.factory.Build(r.Context(), server.BuildRequest{
		Headers:   r.Header,
		GradioIDs: gradioIDs,
		Augment:   augment,
	})
	defer inst.Close()

	resp := inst.MCP.HandleMessage(r.Context(), body)
	if resp == nil && probe.isNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (t *StatelessTransport) handleGet(w http.ResponseWriter, r *http.Request) {
	if t.cfg.Server.StrictCompliance {
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, statelessInfoPage)
}

// Shutdown stops accepting new requests; in-flight ones finish.
func (t *StatelessTransport) Shutdown(ctx context.Context) error {
	t.shuttingDown.Store(true)

	t.mu.Lock()
	srv := t.httpServer
	t.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Cleanup closes the listener. Idempotent; nothing else to tear down.
func (t *StatelessTransport) Cleanup() error {
	t.mu.Lock()
	if t.cleaned {
		t.mu.Unlock()
		return nil
	}
	t.cleaned = true
	srv := t.httpServer
	t.mu.Unlock()

	t.shuttingDown.Store(true)
	if srv != nil {
		return srv.Close()
	}
	return nil
}

// ActiveConnectionCount reports requests currently being served.
func (t *StatelessTransport) ActiveConnectionCount() int {
	return int(t.inflight.Load())
}

// Sessions always returns nil: this transport has none.
func (t *StatelessTransport) Sessions() []SessionInfo {
	return nil
}

const statelessInfoPage = `<!DOCTYPE html>
<html>
<head><title>hf-mcp-server</title></head>
<body>
<h1>hf-mcp-server</h1>
<p>This endpoint speaks MCP JSON-RPC. POST your requests to /mcp.</p>
<p>Each request is served by a fresh server instance; no session state is kept.</p>
</body>
</html>
`
