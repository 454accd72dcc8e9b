package transport

import (
	"encoding/json"
	"net/http"
)

// JSON-RPC error codes used on the wire surface. The first three are the
// standard protocol codes; session-not-found is the implementation-defined
// code MCP clients expect for expired or unknown sessions.
const (
	codeInvalidParams    = -32602
	codeMethodNotAllowed = -32601
	codeInternalError    = -32603
	codeSessionNotFound  = -32001
)

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcErrorEnvelope struct {
	JSONRPC string       `json:"jsonrpc"`
	Error   rpcErrorBody `json:"error"`
	ID      any          `json:"id"`
}

// writeRPCError answers a transport-level failure with a JSON-RPC error
// envelope at the given HTTP status. id may be nil when the request never
// parsed far enough to have one.
func writeRPCError(w http.ResponseWriter, httpStatus, code int, message string, id any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(rpcErrorEnvelope{
		JSONRPC: "2.0",
		Error:   rpcErrorBody{Code: code, Message: message},
		ID:      id,
	})
}

// rpcProbe is the minimal parse needed for routing and metrics: the method
// name and whether the message carries a request id (notifications do not).
type rpcProbe struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

func probeMessage(body []byte) rpcProbe {
	var p rpcProbe
	json.Unmarshal(body, &p)
	return p
}

func (p rpcProbe) isNotification() bool {
	return len(p.ID) == 0 || string(p.ID) == "null"
}
