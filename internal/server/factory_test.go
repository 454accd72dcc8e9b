package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/gradio"
	"github.com/evalstate/hf-mcp-server-sub001/internal/hubtools"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"
	"github.com/evalstate/hf-mcp-server-sub001/internal/policy"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type stubRemote struct {
	schema  []byte
	initErr error
}

func (s *stubRemote) Initialize(ctx context.Context) error { return s.initErr }
func (s *stubRemote) Schema(ctx context.Context) ([]byte, error) {
	if s.schema == nil {
		return nil, fmt.Errorf("no schema")
	}
	return s.schema, nil
}
func (s *stubRemote) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}
func (s *stubRemote) Close() error { return nil }

func testFactory(provider settings.Provider, remotes map[string]*stubRemote) *Factory {
	cfg := config.GetDefaultConfig()
	connector := gradio.NewConnectorWithDialer(cfg.Gradio, func(ep gradio.Endpoint, token string) gradio.Client {
		if r, ok := remotes[ep.ID]; ok {
			return r
		}
		return &stubRemote{initErr: fmt.Errorf("unexpected dial to %s", ep.ID)}
	})
	return NewFactory(&cfg, policy.NewStrategy(cfg.Policy), provider, connector, metrics.NewRegistry("test"))
}

func registeredToolNames(t *testing.T, inst *Instance) []string {
	t.Helper()

	raw := inst.MCP.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestBuildRegistersSelectedLocalTools(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami, hubtools.ToolModelSearch},
	}}
	f := testFactory(provider, nil)

	inst := f.Build(context.Background(), BuildRequest{})
	defer inst.Close()

	assert.Equal(t, policy.ModeExternalSettings, inst.Selection.Mode)
	assert.ElementsMatch(t,
		[]string{hubtools.ToolWhoami, hubtools.ToolModelSearch},
		registeredToolNames(t, inst))
}

func TestBuildFallbackRegistersAllKnownTools(t *testing.T) {
	f := testFactory(nil, nil)

	inst := f.Build(context.Background(), BuildRequest{})
	defer inst.Close()

	assert.Equal(t, policy.ModeFallback, inst.Selection.Mode)
	assert.ElementsMatch(t, hubtools.AllToolIDs(), registeredToolNames(t, inst))
}

func TestBuildSuppliedSettingsBeatProvider(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolPaperSearch},
	}}
	f := testFactory(provider, nil)

	inst := f.Build(context.Background(), BuildRequest{
		Supplied: &settings.Settings{EnabledTools: []string{hubtools.ToolWhoami}},
	})
	defer inst.Close()

	assert.Equal(t, policy.ModeInternalSettings, inst.Selection.Mode)
	assert.Equal(t, []string{hubtools.ToolWhoami}, registeredToolNames(t, inst))
}

func TestBuildAugmentsWithRemoteTools(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: "a/one"}},
	}}
	f := testFactory(provider, map[string]*stubRemote{
		"a/one": {schema: []byte(`[{"name":"generate","inputSchema":{"type":"object"}}]`)},
	})

	inst := f.Build(context.Background(), BuildRequest{})
	defer inst.Close()

	names := registeredToolNames(t, inst)
	assert.Contains(t, names, hubtools.ToolWhoami)
	assert.Contains(t, names, "gr0_generate")
	require.Len(t, inst.Connections, 1)
	assert.True(t, inst.Connections[0].OK())
}

func TestBuildMergesRequestedEndpointIDs(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
	}}
	f := testFactory(provider, map[string]*stubRemote{
		"b/two": {schema: []byte(`[{"name":"upscale","inputSchema":{"type":"object"}}]`)},
	})

	inst := f.Build(context.Background(), BuildRequest{GradioIDs: []string{"b/two"}})
	defer inst.Close()

	assert.Contains(t, registeredToolNames(t, inst), "gr0_upscale")
}

func TestBuildSkipsAugmentationForNonAllBouquet(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: "a/one"}},
	}}
	f := testFactory(provider, nil)

	headers := http.Header{}
	headers.Set(policy.HeaderBouquet, "search")
	inst := f.Build(context.Background(), BuildRequest{Headers: headers})
	defer inst.Close()

	assert.Equal(t, policy.ModeBouquetOverride, inst.Selection.Mode)
	assert.Empty(t, inst.Connections, "non-all bouquet suppresses remote augmentation")
}

func TestBuildAugmentNeverSkipsRemotes(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: "a/one"}},
	}}
	f := testFactory(provider, nil)

	inst := f.Build(context.Background(), BuildRequest{Augment: AugmentNever})
	defer inst.Close()

	assert.Empty(t, inst.Connections)
}

func TestBuildRunsEndpointHooks(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: fluxEndpointID, Private: false}},
	}}
	f := testFactory(provider, map[string]*stubRemote{
		fluxEndpointID: {schema: []byte(`[{"name":"generate","inputSchema":{"type":"object"}}]`)},
	})

	inst := f.Build(context.Background(), BuildRequest{})
	defer inst.Close()

	assert.Contains(t, registeredToolNames(t, inst), "flux1_schnell_prompting_guide")
}

func TestBuildHookSkippedForFailedConnection(t *testing.T) {
	provider := &settings.StaticProvider{Settings: &settings.Settings{
		EnabledTools: []string{hubtools.ToolWhoami},
		Gradios:      []settings.GradioEndpoint{{ID: fluxEndpointID}},
	}}
	f := testFactory(provider, map[string]*stubRemote{
		fluxEndpointID: {initErr: fmt.Errorf("down")},
	})

	inst := f.Build(context.Background(), BuildRequest{})
	defer inst.Close()

	assert.NotContains(t, registeredToolNames(t, inst), "flux1_schnell_prompting_guide")
}

func TestBuildRecoversPanickingToolHandler(t *testing.T) {
	f := testFactory(nil, nil)

	inst := f.Build(context.Background(), BuildRequest{Augment: AugmentNever})
	defer inst.Close()

	inst.MCP.AddTools(server.ServerTool{
		Tool: mcp.NewTool("explode"),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			panic("unexpected state")
		},
	})

	raw := inst.MCP.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"explode","arguments":{}}}`))
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NotNil(t, resp.Error, "a panicking handler must answer an error envelope, body: %s", data)
	assert.EqualValues(t, mcp.INTERNAL_ERROR, resp.Error.Code)
}

func TestResolveTokenPrecedence(t *testing.T) {
	f := testFactory(nil, nil)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer hf_abc")
	assert.Equal(t, "hf_abc", f.resolveToken(headers))

	t.Setenv(config.DefaultTokenEnv, "hf_env")
	assert.Equal(t, "hf_env", f.resolveToken(http.Header{}))
	assert.Equal(t, "hf_env", f.resolveToken(nil))

	// Non-bearer authorization schemes are ignored, not forwarded.
	headers.Set("Authorization", "Basic dXNlcg==")
	assert.Equal(t, "hf_env", f.resolveToken(headers))
}

func TestOnClientInfoCallbackFires(t *testing.T) {
	f := testFactory(nil, nil)

	var gotName, gotVersion string
	inst := f.Build(context.Background(), BuildRequest{
		Augment: AugmentNever,
		OnClientInfo: func(name, version string) {
			gotName, gotVersion = name, version
		},
	})
	defer inst.Close()

	inst.MCP.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"9.9.9"}}}`))

	assert.Equal(t, "test-client", gotName)
	assert.Equal(t, "9.9.9", gotVersion)
}
