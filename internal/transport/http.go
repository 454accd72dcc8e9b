package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// headerSessionID carries the session id on the streamable HTTP transport.
const headerSessionID = "Mcp-Session-Id"

const maxBodyBytes = 4 << 20

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// recoverPanics is the outer handler boundary: an unexpected panic while
// serving a request is answered with a generic internal-error envelope
// instead of tearing the connection down.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error("Transport", fmt.Errorf("%v", rec),
					"Recovered panic serving %s %s", r.Method, r.URL.Path)
				writeRPCError(w, http.StatusInternalServerError, codeInternalError, "internal error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// metricsSnapshot is the wire shape of the debug metrics endpoint.
type metricsSnapshot struct {
	Metrics  metrics.Snapshot `json:"metrics"`
	Sessions []SessionInfo    `json:"sessions"`
}

// metricsHandler serves the transport's counters and session table as a
// point-in-time JSON snapshot.
func metricsHandler(reg *metrics.Registry, sessions func() []SessionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed", nil)
			return
		}
		writeJSON(w, http.StatusOK, metricsSnapshot{
			Metrics:  reg.Snapshot(),
			Sessions: sessions(),
		})
	}
}
