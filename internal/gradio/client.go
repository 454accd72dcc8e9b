package gradio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client is the protocol surface the connector needs from one remote
// endpoint: handshake, schema introspection, invocation, teardown.
type Client interface {
	Initialize(ctx context.Context) error
	Schema(ctx context.Context) ([]byte, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
}

const maxSchemaBytes = 4 << 20

// SSEClient talks MCP to a Gradio space over its SSE endpoint and fetches
// the tool schema document over plain HTTP.
type SSEClient struct {
	mu        sync.Mutex
	endpoint  Endpoint
	headers   map[string]string
	http      *http.Client
	client    *client.Client
	connected bool
}

// NewSSEClient builds a client for one endpoint. A non-empty token is
// passed through as a bearer header on every outbound call; it is never
// validated locally.
func NewSSEClient(ep Endpoint, token string) *SSEClient {
	headers := make(map[string]string)
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &SSEClient{
		endpoint: ep,
		headers:  headers,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Initialize establishes the SSE stream and performs the MCP handshake.
func (c *SSEClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	logging.Debug("GradioClient", "Connecting to %s", c.endpoint.SSEURL())

	var opts []transport.ClientOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHeaders(c.headers))
	}

	mcpClient, err := client.NewSSEMCPClient(c.endpoint.SSEURL(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create SSE client for %s: %w", c.endpoint.ID, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start SSE transport for %s: %w", c.endpoint.ID, err)
	}

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "hf-mcp-gateway",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP protocol with %s: %w", c.endpoint.ID, err)
	}

	c.client = mcpClient
	c.connected = true
	return nil
}

// Schema fetches the raw tool schema document.
func (c *SSEClient) Schema(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.SchemaURL(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema fetch from %s failed: %w", c.endpoint.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("schema fetch from %s returned status %d", c.endpoint.ID, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
}

// CallTool forwards one invocation to the remote endpoint.
func (c *SSEClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	c.mu.Lock()
	mcpClient := c.client
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil, fmt.Errorf("client for %s not initialized", c.endpoint.ID)
	}

	return mcpClient.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
}

// Close tears down the SSE stream. Safe to call more than once.
func (c *SSEClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	return c.client.Close()
}
