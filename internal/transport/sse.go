package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/google/uuid"
)

// SSETransport implements the two-channel legacy streaming transport:
// GET /sse opens the long-lived outbound stream and assigns the session;
// POST /message?sessionId= is the inbound channel. Responses travel back
// over the stream, so POST acknowledges with 202.
type SSETransport struct {
	cfg      *config.Config
	factory  *server.Factory
	metrics  *metrics.Registry
	registry *sessionRegistry

	mu           sync.Mutex
	httpServer   *http.Server
	cleaned      bool
	shuttingDown atomic.Bool
}

// NewSSETransport builds the transport; Initialize starts serving.
func NewSSETransport(cfg *config.Config, factory *server.Factory, reg *metrics.Registry) *SSETransport {
	return &SSETransport{
		cfg:      cfg,
		factory:  factory,
		metrics:  reg,
		registry: newSessionRegistry(reg),
	}
}

// Handler returns the transport's HTTP handler for tests and Initialize.
func (t *SSETransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", t.handleSSE)
	mux.HandleFunc("/message", t.handleMessage)
	mux.HandleFunc("/metrics", metricsHandler(t.metrics, t.Sessions))
	return recoverPanics(mux)
}

// Initialize binds the listener and starts the stale-session sweep.
func (t *SSETransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.httpServer != nil {
		return nil
	}
	t.httpServer = newHTTPServer(&t.cfg.Server, t.Handler())
	t.registry.startSweeper(t.cfg.Server.StaleCheckInterval(), t.cfg.Server.StaleAfter())

	go func() {
		logging.Info("SSETransport", "Serving MCP on http://%s/sse", t.httpServer.Addr)
		if err := t.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("SSETransport", err, "HTTP server error")
		}
	}()
	return nil
}

// handleSSE opens the outbound stream. Reconnecting with a known session
// id cleans the old session up first; sessions are never resurrected.
func (t *SSETransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
		return
	}
	if t.shuttingDown.Load() {
		writeRPCError(w, http.StatusServiceUnavailable, codeInternalError, "server is shutting down", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported", nil)
		return
	}

	sid := r.URL.Query().Get("sessionId")
	if sid == "" {
		sid = uuid.NewString()
	} else if err := ValidateSessionID(sid); err != nil {
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, err.Error(), nil)
		return
	} else if old, err := t.registry.remove(sid); err == nil {
		logging.Debug("SSETransport", "Reconnect for session %s, cleaning old session first",
			logging.TruncateSessionID(sid))
		old.close()
	}

	sess := newSession(sid, config.TransportSSE, nil)
	gradioIDs, augment := gradioRequestOptions(r)
	inst := t.factory.Build(r.Context(), server.BuildRequest{
		Headers:   r.Header,
		GradioIDs: gradioIDs,
		Augment:   augment,
		OnClientInfo: func(name, version string) {
			sess.setClientInfo(name, version)
		},
	})
	sess.instance = inst

	if err := inst.MCP.RegisterSession(r.Context(), sess); err != nil {
		inst.Close()
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "failed to register session", nil)
		return
	}
	if err := t.registry.add(sess); err != nil {
		sess.close()
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "failed to track session", nil)
		return
	}
	t.metrics.RecordConnection()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSEEvent(w, "endpoint", []byte("/message?sessionId="+sess.id))
	flusher.Flush()

	streamSession(r.Context(), w, flusher, sess, t.cfg.Server.HeartbeatInterval())

	// Stream gone: dead client or closed session. Clean up proactively;
	// the stale sweep is only the backstop. A reconnect may already hold
	// this id, so only evict our own entry.
	t.registry.removeMatching(sess)
	sess.close()
}

// handleMessage is the inbound channel. The JSON-RPC response is pushed
// onto the session's stream; the POST itself just acknowledges.
func (t *SSETransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
		return
	}

	sid := r.URL.Query().Get("sessionId")
	if sid == "" {
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, "missing sessionId parameter", nil)
		return
	}
	sess, err := t.registry.get(sid)
	if err != nil {
		t.metrics.RecordError()
		writeSessionLookupError(w, http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, "unreadable request body", nil)
		return
	}
	probe := probeMessage(body)
	t.metrics.RecordRequest(probe.Method)

	resp := sess.handle(r.Context(), body)
	if resp != nil {
		if data, err := json.Marshal(resp); err == nil {
			sess.sendOutbound(data)
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

// Shutdown stops accepting new streams and suspends the sweep.
func (t *SSETransport) Shutdown(ctx context.Context) error {
	t.shuttingDown.Store(true)
	t.registry.stopSweeper()

	t.mu.Lock()
	srv := t.httpServer
	t.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Cleanup closes every session and the listener. Idempotent.
func (t *SSETransport) Cleanup() error {
	t.mu.Lock()
	if t.cleaned {
		t.mu.Unlock()
		return nil
	}
	t.cleaned = true
	srv := t.httpServer
	t.mu.Unlock()

	t.shuttingDown.Store(true)
	t.registry.stopSweeper()
	err := t.registry.closeAll()
	if srv != nil {
		srv.Close()
	}
	return err
}

// ActiveConnectionCount reports the live session count.
func (t *SSETransport) ActiveConnectionCount() int {
	return t.registry.count()
}

// Sessions returns the current session table.
func (t *SSETransport) Sessions() []SessionInfo {
	return t.registry.list()
}
