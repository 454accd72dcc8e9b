package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresDefaultConfiguration(t *testing.T) {
	cfg := config.GetDefaultConfig()

	a, err := New(&cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Transport)
	assert.NotNil(t, a.Factory)
	assert.IsType(t, &settings.HTTPProvider{}, a.Provider)
	assert.Equal(t, 0, a.Transport.ActiveConnectionCount())
}

func TestNewUnsupportedTransportIsFatal(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.Transport = "telegraph"

	_, err := New(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestNewFileSettingsProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools: [hf_whoami]\n"), 0o644))

	cfg := config.GetDefaultConfig()
	cfg.Settings.FilePath = path

	a, err := New(&cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &settings.FileProvider{}, a.Provider)
}

func TestNewMissingSettingsFileFails(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Settings.FilePath = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := New(&cfg)
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	cfg := config.GetDefaultConfig()
	a, err := New(&cfg)
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
