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

// StreamableTransport implements the stateful streaming HTTP surface:
// POST/GET/DELETE on /mcp with the session id carried in a header. The
// server assigns the id on the first session-less initialize POST; an
// unknown id afterwards is a client error, never a new session.
type StreamableTransport struct {
	cfg      *config.Config
	factory  *server.Factory
	metrics  *metrics.Registry
	registry *sessionRegistry

	mu           sync.Mutex
	httpServer   *http.Server
	cleaned      bool
	shuttingDown atomic.Bool
}

// NewStreamableTransport builds the transport; Initialize starts serving.
func NewStreamableTransport(cfg *config.Config, factory *server.Factory, reg *metrics.Registry) *StreamableTransport {
	return &StreamableTransport{
		cfg:      cfg,
		factory:  factory,
		metrics:  reg,
		registry: newSessionRegistry(reg),
	}
}

// Handler returns the transport's HTTP handler. Exposed so tests can mount
// it without binding a port.
func (t *StreamableTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc("/metrics", metricsHandler(t.metrics, t.Sessions))
	return recoverPanics(mux)
}

// Initialize binds the listener and starts the stale-session sweep.
func (t *StreamableTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.httpServer != nil {
		return nil
	}
	t.httpServer = newHTTPServer(&t.cfg.Server, t.Handler())
	t.registry.startSweeper(t.cfg.Server.StaleCheckInterval(), t.cfg.Server.StaleAfter())

	go func() {
		logging.Info("StreamableTransport", "Serving MCP on http://%s/mcp", t.httpServer.Addr)
		if err := t.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("StreamableTransport", err, "HTTP server error")
		}
	}()
	return nil
}

func (t *StreamableTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		t.handlePost(w, r)
	case http.MethodGet:
		t.handleGet(w, r)
	case http.MethodDelete:
		t.handleDelete(w, r)
	default:
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
	}
}

func (t *StreamableTransport) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, "unreadable request body", nil)
		return
	}
	probe := probeMessage(body)

	sid := r.Header.Get(headerSessionID)
	if sid == "" {
		t.handleNewSession(w, r, body, probe)
		return
	}

	sess, err := t.registry.get(sid)
	if err != nil {
		t.metrics.RecordError()
		writeSessionLookupError(w, http.StatusBadRequest, err)
		return
	}

	t.metrics.RecordRequest(probe.Method)
	resp := sess.handle(r.Context(), body)
	if resp == nil && probe.isNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNewSession serves the one POST allowed without a session id: the
// initialize handshake. The composed server for this session is built
// here, once, from the request's headers.
func (t *StreamableTransport) handleNewSession(w http.ResponseWriter, r *http.Request, body []byte, probe rpcProbe) {
	if probe.Method != "initialize" {
		t.metrics.RecordError()
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams,
			"missing "+headerSessionID+" header", rawID(probe))
		return
	}
	if t.shuttingDown.Load() {
		writeRPCError(w, http.StatusServiceUnavailable, codeInternalError, "server is shutting down", rawID(probe))
		return
	}

	sess := newSession(uuid.NewString(), config.TransportStreamableHTTP, nil)
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
		t.metrics.RecordError()
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "failed to register session", rawID(probe))
		return
	}
	if err := t.registry.add(sess); err != nil {
		sess.close()
		t.metrics.RecordError()
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "failed to track session", rawID(probe))
		return
	}

	t.metrics.RecordConnection()
	t.metrics.RecordRequest(probe.Method)

	resp := sess.handle(r.Context(), body)
	w.Header().Set(headerSessionID, sess.id)
	writeJSON(w, http.StatusOK, resp)
}

// handleGet opens the live outbound stream for an existing session.
func (t *StreamableTransport) handleGet(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(headerSessionID)
	sess, err := t.registry.get(sid)
	if err != nil {
		writeSessionLookupError(w, http.StatusBadRequest, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeRPCError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	streamSession(r.Context(), w, flusher, sess, t.cfg.Server.HeartbeatInterval())
}

// handleDelete explicitly terminates one session.
func (t *StreamableTransport) handleDelete(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(headerSessionID)
	sess, err := t.registry.remove(sid)
	if err != nil {
		writeSessionLookupError(w, http.StatusNotFound, err)
		return
	}
	sess.close()
	logging.Debug("StreamableTransport", "Session %s terminated by client", logging.TruncateSessionID(sid))
	w.WriteHeader(http.StatusNoContent)
}

// Shutdown stops accepting new sessions and suspends the sweep; open
// sessions and in-flight requests continue until Cleanup.
func (t *StreamableTransport) Shutdown(ctx context.Context) error {
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

// Cleanup is the hard stop: close every session and the listener.
// Idempotent; a failing session close never blocks the rest.
func (t *StreamableTransport) Cleanup() error {
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
func (t *StreamableTransport) ActiveConnectionCount() int {
	return t.registry.count()
}

// Sessions returns the current session table.
func (t *StreamableTransport) Sessions() []SessionInfo {
	return t.registry.list()
}

// writeSessionLookupError maps registry errors onto the wire: a missing
// session and a malformed id are distinct client errors.
func writeSessionLookupError(w http.ResponseWriter, notFoundStatus int, err error) {
	switch err.(type) {
	case *SessionNotFoundError:
		writeRPCError(w, notFoundStatus, codeSessionNotFound, err.Error(), nil)
	default:
		writeRPCError(w, http.StatusBadRequest, codeInvalidParams, err.Error(), nil)
	}
}

func rawID(probe rpcProbe) any {
	if len(probe.ID) == 0 {
		return nil
	}
	return json.RawMessage(probe.ID)
}
