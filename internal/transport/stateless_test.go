package transport

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatelessPostServesFreshInstancePerRequest(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	// Initialize works without any session header and assigns none.
	resp := postMCP(t, ts.URL, "", initializeBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(headerSessionID))
	body := decodeBody(t, resp)
	assert.Contains(t, body["result"].(map[string]any), "serverInfo")

	// A follow-up request needs no session either; each POST stands alone.
	resp = postMCP(t, ts.URL, "", toolsListBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Contains(t, body["result"].(map[string]any), "tools")

	assert.Empty(t, tr.Sessions())
}

func TestStatelessNotificationAccepted(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	resp, err := http.Post(ts.URL+"/mcp", "application/json",
		bytes.NewReader([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestStatelessGetServesInfoPage(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	resp, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "hf-mcp-server")
}

func TestStatelessStrictComplianceRejectsGet(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	cfg.Server.StrictCompliance = true
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	resp, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.EqualValues(t, codeMethodNotAllowed, errorCode(t, decodeBody(t, resp)))
}

func TestStatelessDeleteAlwaysRejected(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	tr := NewStatelessTransport(cfg, factory, reg)
	ts := httptest.NewServer(tr.Handler())
	defer ts.Close()
	defer tr.Cleanup()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.EqualValues(t, codeMethodNotAllowed, errorCode(t, decodeBody(t, resp)))
}

func TestStatelessCleanupIsIdempotent(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	tr := NewStatelessTransport(cfg, factory, reg)

	require.NoError(t, tr.Cleanup())
	require.NoError(t, tr.Cleanup())
	assert.Equal(t, 0, tr.ActiveConnectionCount())
}

func TestNewRejectsUnsupportedTransport(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)
	cfg.Server.Transport = "carrier-pigeon"

	_, err := New(cfg, factory, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestNewBuildsEachTransportKind(t *testing.T) {
	cfg, factory, reg := newTestDeps(t)

	kinds := []config.Transport{
		config.TransportStdio,
		config.TransportSSE,
		config.TransportStreamableHTTP,
		config.TransportStatelessHTTP,
	}
	for _, kind := range kinds {
		cfg.Server.Transport = kind
		require.NoError(t, cfg.Validate())
		tr, err := New(cfg, factory, reg)
		require.NoError(t, err, "transport %s", kind)
		require.NotNil(t, tr)
	}
}
