// Package metrics tracks per-transport connection and request counters.
//
// Counters are simple monotonic aggregates guarded by a mutex; readers get
// an eventually-consistent snapshot, never a live view of internal maps.
package metrics

import (
	"sync"
	"time"
)

// Registry holds counters for a single transport instance. Each transport
// owns exactly one Registry; nothing is shared across transports.
type Registry struct {
	mu sync.RWMutex

	transport string
	startedAt time.Time

	connections     int64
	requests        int64
	errors          int64
	sessionsCleaned int64

	// Per-method and per-client-name request counts.
	methodCounts map[string]int64
	clientCounts map[string]int64

	// Per-proxy-tool invocation outcomes.
	toolSuccesses map[string]int64
	toolFailures  map[string]int64
}

// Snapshot is a point-in-time copy of a Registry, safe to hand out.
type Snapshot struct {
	Transport       string           `json:"transport"`
	StartedAt       time.Time        `json:"startedAt"`
	Connections     int64            `json:"connections"`
	Requests        int64            `json:"requests"`
	Errors          int64            `json:"errors"`
	SessionsCleaned int64            `json:"sessionsCleaned"`
	MethodCounts    map[string]int64 `json:"methodCounts"`
	ClientCounts    map[string]int64 `json:"clientCounts"`
	ToolSuccesses   map[string]int64 `json:"toolSuccesses"`
	ToolFailures    map[string]int64 `json:"toolFailures"`
}

// NewRegistry creates a metrics registry for the named transport.
func NewRegistry(transport string) *Registry {
	return &Registry{
		transport:     transport,
		startedAt:     time.Now(),
		methodCounts:  make(map[string]int64),
		clientCounts:  make(map[string]int64),
		toolSuccesses: make(map[string]int64),
		toolFailures:  make(map[string]int64),
	}
}

// RecordConnection counts a new logical connection (session handshake).
func (r *Registry) RecordConnection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections++
}

// RecordRequest counts one inbound request for the given JSON-RPC method.
func (r *Registry) RecordRequest(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	if method != "" {
		r.methodCounts[method]++
	}
}

// RecordClient counts a request attributed to a client implementation name.
func (r *Registry) RecordClient(name, version string) {
	if name == "" {
		return
	}
	key := name
	if version != "" {
		key = name + "/" + version
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientCounts[key]++
}

// RecordError counts a request that produced a protocol or internal error.
func (r *Registry) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors++
}

// RecordSessionsCleaned adds n to the stale sweep eviction counter.
func (r *Registry) RecordSessionsCleaned(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionsCleaned += int64(n)
}

// RecordToolOutcome counts one proxied tool invocation result.
func (r *Registry) RecordToolOutcome(toolName string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.toolSuccesses[toolName]++
	} else {
		r.toolFailures[toolName]++
	}
}

// SessionsCleaned returns the current eviction counter value.
func (r *Registry) SessionsCleaned() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionsCleaned
}

// Snapshot returns a copy of all counters.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{
		Transport:       r.transport,
		StartedAt:       r.startedAt,
		Connections:     r.connections,
		Requests:        r.requests,
		Errors:          r.errors,
		SessionsCleaned: r.sessionsCleaned,
		MethodCounts:    copyCounts(r.methodCounts),
		ClientCounts:    copyCounts(r.clientCounts),
		ToolSuccesses:   copyCounts(r.toolSuccesses),
		ToolFailures:    copyCounts(r.toolFailures),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
