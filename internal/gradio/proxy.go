package gradio

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FailureLog records schema-fetch failures at most once per tool name for
// the process lifetime. Repeat failures for the same name stay silent.
type FailureLog struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewFailureLog builds an empty once-per-name failure log.
func NewFailureLog() *FailureLog {
	return &FailureLog{seen: make(map[string]bool)}
}

// Warn logs the failure unless this tool name already failed before.
func (l *FailureLog) Warn(toolName, format string, args ...interface{}) {
	l.mu.Lock()
	already := l.seen[toolName]
	l.seen[toolName] = true
	l.mu.Unlock()

	if already {
		return
	}
	logging.Warn("GradioProxy", "Tool %s: %s", toolName, fmt.Sprintf(format, args...))
}

// ProxyOptions carries the collaborators proxy handlers need.
type ProxyOptions struct {
	Metrics          *metrics.Registry
	Failures         *FailureLog
	CallTimeout      time.Duration
	SuppressDefaults bool
}

// ProxyTools builds one local proxy tool per discovered remote tool across
// all successful connections. The returned descriptors are immutable after
// this call; names are unique across the whole batch.
func ProxyTools(conns []Connection, opts ProxyOptions) []server.ServerTool {
	var out []server.ServerTool
	seen := make(map[string]bool)

	for _, conn := range conns {
		if !conn.OK() {
			continue
		}
		for ti, remote := range conn.Tools {
			name := ProxyToolName(remote.Name, conn.Ordinal, conn.Endpoint.Private, ti)
			if seen[name] {
				// Two raw names folding to the same sanitized form. The
				// fallback itself can be taken by a raw name that already
				// carries the marker, so advance until the name is free.
				base := name[:min(len(name), MaxToolNameLength-len(overflowMarker)-4)]
				for n := ti; ; n++ {
					candidate := base + overflowMarker + strconv.Itoa(n)
					if !seen[candidate] {
						name = candidate
						break
					}
				}
			}
			seen[name] = true

			if remote.InputSchema == nil && opts.Failures != nil {
				opts.Failures.Warn(name, "schema unavailable from %s, exposing unconstrained parameters", conn.Endpoint.ID)
			}

			out = append(out, server.ServerTool{
				Tool: mcp.Tool{
					Name:        name,
					Description: proxyDescription(remote, conn.Endpoint),
					InputSchema: ConvertInputSchema(remote.InputSchema, opts.SuppressDefaults),
				},
				Handler: proxyHandler(conn.Client, remote.Name, name, opts),
			})
		}
	}
	return out
}

func proxyDescription(remote RemoteTool, ep Endpoint) string {
	if remote.Description == "" {
		return fmt.Sprintf("Tool %s from %s", remote.Name, ep.ID)
	}
	return fmt.Sprintf("%s (from %s)", remote.Description, ep.ID)
}

// proxyHandler forwards one call to the remote endpoint, translates the
// outcome into the local result contract, and bumps the per-tool counters.
func proxyHandler(cl Client, remoteName, localName string, opts ProxyOptions) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callCtx := ctx
		if opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
			defer cancel()
		}

		result, err := cl.CallTool(callCtx, remoteName, req.GetArguments())
		if err != nil {
			if opts.Metrics != nil {
				opts.Metrics.RecordToolOutcome(localName, false)
			}
			return mcp.NewToolResultError(fmt.Sprintf("remote call %s failed: %v", remoteName, err)), nil
		}

		success := result != nil && !result.IsError
		if opts.Metrics != nil {
			opts.Metrics.RecordToolOutcome(localName, success)
		}
		return result, nil
	}
}
