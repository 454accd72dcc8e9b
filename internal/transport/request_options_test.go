package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/gradio"
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/policy"
	"github.com/evalstate/hf-mcp-server-sub001/internal/server"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/mcp-go/mcp"
)

type stubGradioClient struct {
	schema []byte
}

func (s *stubGradioClient) Initialize(ctx context.Context) error { return nil }
func (s *stubGradioClient) Schema(ctx context.Context) ([]byte, error) {
	return s.schema, nil
}
func (s *stubGradioClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}
func (s *stubGradioClient) Close() error { return nil }

// newRemoteDeps builds deps whose connector answers every dial with the
// given schema, so request-named endpoints resolve without a network.
func newRemoteDeps(t *testing.T, provider settings.Provider, schema string) (*config.Config, *server.Factory, *metrics.Registry) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	reg := metrics.NewRegistry("test")
	connector := gradio.NewConnectorWithDialer(cfg.Gradio, func(ep gradio.Endpoint, token string) gradio.Client {
		return &stubGradioClient{schema: []byte(schema)}
	})
	factory := server.NewFactory(&cfg, policy.NewStrategy(cfg.Policy), provider, connector, reg)
	return &cfg, factory, reg
}

func wireToolNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	result, ok := body["result"].(map[string]any)
	require.True(t, ok, "expected result envelope, got %v", body)
	var names []string
	for _, tool := range result["tools"].([]any) {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	return names
}

func TestGradioRequestOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/mcp?gradio=a/one,b/two&gradio=%20c/three%20", nil)
	ids, augment := gradioRequestOptions(req)
	assert.Equal(t, []string{"a/one", "b/two", "c/three"}, ids)
	assert.Equal(t, server.AugmentUnlessBouquet, augment)

	req = httptest.NewRequest(http.MethodPost, "/mcp?gradio=OFF", nil)
	ids, augment = gradioRequestOptions(req)
	assert.Empty(t, ids)
	assert.Equal(t, server.AugmentDisabledByRequest, augment)

	req = httptest.NewRequest(http.MethodPost, "/mcp?gradio=,", nil)
	ids, augment = gradioRequestOptions(req)
	assert.Empty(t, ids)
	assert.Equal(t, server.AugmentUnlessBouquet, augment)
}

func TestStreamableGradioQueryParamAugments(t *testing.T) {
	cfg, factory, reg := newRemoteDeps(t, nil,
		`[{"name":"upscale","inputSchema":{"type":"object"}}]`)
	tr := NewStreamableTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp?gradio=b/two", strings.NewReader(initializeBody))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	sid := resp.Header.Get(headerSessionID)
	resp.Body.Close()
	require.NotEmpty(t, sid)

	resp = postMCP(t, ts.URL, sid, toolsListBody)
	names := wireToolNames(t, decodeBody(t, resp))
	assert.Contains(t, names, "gr0_upscale",
		"request-named endpoints must be proxied for the session")
}

func TestStatelessGradioOffDisablesAugmentation(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: "a/one"}},
	}}
	cfg, factory, reg := newRemoteDeps(t, provider,
		`[{"name":"generate","inputSchema":{"type":"object"}}]`)
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	resp, err := http.Post(ts.URL+"/mcp?gradio=off", "application/json", strings.NewReader(toolsListBody))
	require.NoError(t, err)
	names := wireToolNames(t, decodeBody(t, resp))
	assert.NotContains(t, names, "gr0_generate")

	// Without the disable flag the settings-derived endpoint is proxied.
	resp, err = http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(toolsListBody))
	require.NoError(t, err)
	names = wireToolNames(t, decodeBody(t, resp))
	assert.Contains(t, names, "gr0_generate")
}
