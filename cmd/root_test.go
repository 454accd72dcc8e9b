package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hf-mcp-server version 1.2.3\n", out)
}

func TestToolsCommandListsBuiltins(t *testing.T) {
	out, err := execute(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "hf_whoami")
	assert.Contains(t, out, "Bouquet")
	assert.Contains(t, out, "Mix")
}

func TestToolsCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, "tools", "extra")
	assert.Error(t, err)
}
