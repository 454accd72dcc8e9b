package gradio

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/mcp-go/mcp"
)

type fakeClient struct {
	mu sync.Mutex

	schema    []byte
	initErr   error
	initDelay time.Duration

	callResult *mcp.CallToolResult
	callErr    error
	calledName string
	calledArgs map[string]any

	closed bool
}

func (f *fakeClient) Initialize(ctx context.Context) error {
	if f.initDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.initDelay):
		}
	}
	return f.initErr
}

func (f *fakeClient) Schema(ctx context.Context) ([]byte, error) {
	if f.schema == nil {
		return nil, fmt.Errorf("no schema configured")
	}
	return f.schema, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	f.calledName = name
	f.calledArgs = args
	f.mu.Unlock()
	return f.callResult, f.callErr
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

const oneToolSchema = `[{"name": "generate", "inputSchema": {"type": "object"}}]`

func testEndpoints(n int) []Endpoint {
	eps := make([]Endpoint, n)
	for i := range eps {
		eps[i] = Endpoint{
			ID:        fmt.Sprintf("owner/space%d", i),
			Name:      fmt.Sprintf("space%d", i),
			Subdomain: fmt.Sprintf("owner-space%d", i),
		}
	}
	return eps
}

func connectorWith(timeout time.Duration, clients map[string]*fakeClient) *Connector {
	return &Connector{
		connectTimeout: timeout,
		dial: func(ep Endpoint, token string) Client {
			return clients[ep.ID]
		},
	}
}

func TestConnectAllCollectsAllOutcomes(t *testing.T) {
	clients := map[string]*fakeClient{
		"owner/space0": {schema: []byte(oneToolSchema)},
		"owner/space1": {initErr: fmt.Errorf("connection refused")},
		"owner/space2": {schema: []byte(oneToolSchema)},
	}
	c := connectorWith(time.Second, clients)

	conns := c.ConnectAll(context.Background(), testEndpoints(3), "")
	require.Len(t, conns, 3)

	assert.True(t, conns[0].OK())
	assert.False(t, conns[1].OK())
	assert.True(t, conns[2].OK())

	// Results keep input order so endpoint ordinals stay stable.
	assert.Equal(t, 0, conns[0].Ordinal)
	assert.Equal(t, 1, conns[1].Ordinal)
	assert.Equal(t, 2, conns[2].Ordinal)

	assert.True(t, clients["owner/space1"].wasClosed())
}

func TestConnectAllOneDeadEndpointCostsOneTimeout(t *testing.T) {
	timeout := 150 * time.Millisecond
	clients := map[string]*fakeClient{
		"owner/space0": {schema: []byte(oneToolSchema)},
		"owner/space1": {schema: []byte(oneToolSchema), initDelay: 10 * time.Second},
		"owner/space2": {schema: []byte(oneToolSchema)},
		"owner/space3": {schema: []byte(oneToolSchema)},
	}
	c := connectorWith(timeout, clients)

	start := time.Now()
	conns := c.ConnectAll(context.Background(), testEndpoints(4), "")
	elapsed := time.Since(start)

	// The join waits for one timeout period, not one per endpoint.
	assert.Less(t, elapsed, 3*timeout)

	ok := 0
	for _, conn := range conns {
		if conn.OK() {
			ok++
		}
	}
	assert.Equal(t, 3, ok)
	assert.False(t, conns[1].OK())
	assert.ErrorIs(t, conns[1].Err, context.DeadlineExceeded)
}

func TestConnectZeroToolsIsFailure(t *testing.T) {
	clients := map[string]*fakeClient{
		"owner/space0": {schema: []byte(`[]`)},
	}
	c := connectorWith(time.Second, clients)

	conns := c.ConnectAll(context.Background(), testEndpoints(1), "")
	require.Len(t, conns, 1)
	assert.False(t, conns[0].OK())
	assert.ErrorIs(t, conns[0].Err, ErrNoTools)
	assert.True(t, clients["owner/space0"].wasClosed())
}

func TestCloseAllClosesOnlySuccessfulConnections(t *testing.T) {
	good := &fakeClient{schema: []byte(oneToolSchema)}
	bad := &fakeClient{initErr: fmt.Errorf("down")}
	c := connectorWith(time.Second, map[string]*fakeClient{
		"owner/space0": good,
		"owner/space1": bad,
	})

	conns := c.ConnectAll(context.Background(), testEndpoints(2), "")
	CloseAll(conns)

	assert.True(t, good.wasClosed())
}
