package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// writeSSEEvent frames one server-sent event.
func writeSSEEvent(w io.Writer, event string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// streamSession pumps a session's outbound traffic (notifications and, on
// the two-channel transport, responses) onto an open event stream until
// the client goes away or the session ends. Heartbeat comment frames
// detect a dead stream; the caller handles cleanup on return.
func streamSession(ctx context.Context, w io.Writer, flusher http.Flusher, sess *session, heartbeat time.Duration) {
	var hb <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		hb = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.done:
			return
		case n := <-sess.notifications:
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if writeSSEEvent(w, "message", data) != nil {
				return
			}
			flusher.Flush()
		case data := <-sess.outbound:
			if writeSSEEvent(w, "message", data) != nil {
				return
			}
			flusher.Flush()
		case <-hb:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
