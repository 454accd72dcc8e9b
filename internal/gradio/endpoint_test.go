package gradio

import (
	"testing"

	"github.com/evalstate/hf-mcp-server-sub001/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEndpointsFromSettings(t *testing.T) {
	eps := ResolveEndpoints([]settings.GradioEndpoint{
		{ID: "evalstate/flux1_schnell", Name: "flux1_schnell", Subdomain: "evalstate-flux1-schnell"},
		{ID: "someone/private-space", Private: true},
	}, nil)

	require.Len(t, eps, 2)
	assert.Equal(t, "evalstate-flux1-schnell", eps[0].Subdomain)
	assert.Equal(t, "https://evalstate-flux1-schnell.hf.space/gradio_api/mcp/sse", eps[0].SSEURL())

	// Missing name and subdomain are derived from the id.
	assert.Equal(t, "private-space", eps[1].Name)
	assert.Equal(t, "someone-private-space", eps[1].Subdomain)
	assert.True(t, eps[1].Private)
}

func TestResolveEndpointsMergesRequestedIDs(t *testing.T) {
	eps := ResolveEndpoints(
		[]settings.GradioEndpoint{{ID: "a/one"}},
		[]string{"b/two", "a/one", "b/two"},
	)

	require.Len(t, eps, 2, "duplicates collapse across both sources")
	assert.Equal(t, "a/one", eps[0].ID)
	assert.Equal(t, "b/two", eps[1].ID)
}

func TestResolveEndpointsDropsUnderivableIDs(t *testing.T) {
	eps := ResolveEndpoints(
		[]settings.GradioEndpoint{{ID: "no-separator"}, {ID: "too/many/parts"}, {ID: "/empty-owner"}},
		[]string{"trailing/", "ok/space"},
	)

	require.Len(t, eps, 1)
	assert.Equal(t, "ok/space", eps[0].ID)
}

func TestDeriveSubdomainFolds(t *testing.T) {
	assert.Equal(t, "evalstate-flux1-schnell", DeriveSubdomain("evalstate", "FLUX1_Schnell"))
	assert.Equal(t, "owner-my-space", DeriveSubdomain("Owner", "my.space"))
}
