package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

const notificationBuffer = 64

// session is one logical client connection on a stateful transport. It
// implements the protocol library's ClientSession so the composed server
// can target notifications at it.
type session struct {
	id        string
	transport config.Transport
	instance  *server.Instance

	mu            sync.RWMutex
	connectedAt   time.Time
	lastActivity  time.Time
	clientName    string
	clientVersion string

	notifications chan mcp.JSONRPCNotification
	outbound      chan []byte
	initialized   atomic.Bool
	closeOnce     sync.Once
	done          chan struct{}

	handleMu sync.Mutex
}

func newSession(id string, kind config.Transport, inst *server.Instance) *session {
	now := time.Now()
	return &session{
		id:            id,
		transport:     kind,
		instance:      inst,
		connectedAt:   now,
		lastActivity:  now,
		notifications: make(chan mcp.JSONRPCNotification, notificationBuffer),
		outbound:      make(chan []byte, notificationBuffer),
		done:          make(chan struct{}),
	}
}

// SessionID implements ClientSession.
func (s *session) SessionID() string { return s.id }

// NotificationChannel implements ClientSession.
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return s.notifications
}

// Initialize implements ClientSession.
func (s *session) Initialize() { s.initialized.Store(true) }

// Initialized implements ClientSession.
func (s *session) Initialized() bool { return s.initialized.Load() }

// handle dispatches one message to the session's composed server. Handling
// is strictly sequential per session: two messages for the same session
// never overlap, while different sessions interleave freely.
func (s *session) handle(ctx context.Context, body []byte) mcp.JSONRPCMessage {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()
	ctx = s.instance.MCP.WithContext(ctx, s)
	return s.instance.MCP.HandleMessage(ctx, body)
}

// sendOutbound queues a response for the session's event stream. A slow
// or absent reader drops the message rather than blocking the handler.
func (s *session) sendOutbound(data []byte) {
	select {
	case s.outbound <- data:
	case <-s.done:
	default:
		logging.Warn("SessionRegistry", "Dropping outbound message for slow session %s",
			logging.TruncateSessionID(s.id))
	}
}

// touch moves lastActivity forward. connectedAt never changes, so the
// lastActivity >= connectedAt invariant holds for the session's lifetime.
func (s *session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *session) setClientInfo(name, version string) {
	s.mu.Lock()
	s.clientName = name
	s.clientVersion = version
	s.mu.Unlock()
}

func (s *session) info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := "connected"
	if !s.initialized.Load() {
		status = "initializing"
	}
	return SessionInfo{
		ID:            s.id,
		Transport:     s.transport,
		ConnectedAt:   s.connectedAt,
		LastActivity:  s.lastActivity,
		ClientName:    s.clientName,
		ClientVersion: s.clientVersion,
		Status:        status,
	}
}

// close releases the session's resources. Safe to call more than once;
// only the first call does work.
func (s *session) close() error {
	s.closeOnce.Do(func() {
		if s.instance != nil {
			s.instance.MCP.UnregisterSession(context.Background(), s.id)
			s.instance.Close()
		}
		close(s.done)
	})
	return nil
}

// sessionRegistry is the session map one stateful transport owns. Nothing
// is shared across transports.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	metrics  *metrics.Registry

	sweepMu   sync.Mutex
	sweepStop chan struct{}
}

func newSessionRegistry(reg *metrics.Registry) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		metrics:  reg,
	}
}

func (r *sessionRegistry) add(s *session) error {
	if err := ValidateSessionID(s.id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
	logging.Debug("SessionRegistry", "Registered session %s (total: %d)",
		logging.TruncateSessionID(s.id), len(r.sessions))
	return nil
}

// get looks a session up and marks it active. An unknown id is a client
// error, never an invitation to create the session.
func (r *sessionRegistry) get(id string) (*session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &SessionNotFoundError{SessionID: id}
	}
	s.touch()
	return s, nil
}

// remove detaches a session from the map without closing it. The caller
// owns the returned session's teardown.
func (r *sessionRegistry) remove(id string) (*session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &SessionNotFoundError{SessionID: id}
	}
	delete(r.sessions, id)
	return s, nil
}

// removeMatching detaches a session only if the map still holds this exact
// session. A reconnect may have replaced the entry under the same id; that
// replacement must not be evicted by the old stream's teardown.
func (r *sessionRegistry) removeMatching(s *session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.id]; ok && cur == s {
		delete(r.sessions, s.id)
		return true
	}
	return false
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *sessionRegistry) list() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.info())
	}
	return infos
}

// closeAll detaches and closes every session, collecting all outcomes; one
// failing session never blocks closing the rest.
func (r *sessionRegistry) closeAll() error {
	r.mu.Lock()
	all := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	var errs []error
	for _, s := range all {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// startSweeper runs the stale-session sweep until stopSweeper is called.
func (r *sessionRegistry) startSweeper(check, evictAfter time.Duration) {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	if r.sweepStop != nil {
		return
	}
	stop := make(chan struct{})
	r.sweepStop = stop

	go func() {
		ticker := time.NewTicker(check)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.sweepStale(evictAfter)
			}
		}
	}()
}

// stopSweeper halts the sweep. Idempotent; the sweep must not run during
// shutdown.
func (r *sessionRegistry) stopSweeper() {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	if r.sweepStop == nil {
		return
	}
	close(r.sweepStop)
	r.sweepStop = nil
}

// sweepStale evicts every session idle longer than evictAfter and returns
// how many were removed. The cleaned counter advances by exactly that
// number.
func (r *sessionRegistry) sweepStale(evictAfter time.Duration) int {
	cutoff := time.Now().Add(-evictAfter)

	r.mu.Lock()
	var stale []*session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		logging.Debug("SessionRegistry", "Evicting stale session %s", logging.TruncateSessionID(s.id))
		s.close()
	}
	if len(stale) > 0 && r.metrics != nil {
		r.metrics.RecordSessionsCleaned(len(stale))
	}
	return len(stale)
}
