package transport

import (
	"testing"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/internal/config"
	"github.com/evalstate/hf-mcp-server-sub001/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionActivityInvariant(t *testing.T) {
	s := newSession("s1", config.TransportSSE, nil)

	info := s.info()
	assert.False(t, info.LastActivity.Before(info.ConnectedAt))

	for i := 0; i < 3; i++ {
		time.Sleep(time.Millisecond)
		s.touch()
		info = s.info()
		assert.False(t, info.LastActivity.Before(info.ConnectedAt),
			"lastActivity must never precede connectedAt")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := newSession("s1", config.TransportSSE, nil)
	require.NoError(t, s.close())
	require.NoError(t, s.close())

	select {
	case <-s.done:
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestRegistryUnknownSessionIsError(t *testing.T) {
	r := newSessionRegistry(metrics.NewRegistry("test"))

	_, err := r.get("never-created")
	var notFound *SessionNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = r.get("")
	var invalid *InvalidSessionIDError
	assert.ErrorAs(t, err, &invalid)
}

func TestRegistryGetTouchesActivity(t *testing.T) {
	r := newSessionRegistry(metrics.NewRegistry("test"))
	s := newSession("s1", config.TransportStreamableHTTP, nil)
	require.NoError(t, r.add(s))

	before := s.idleSince()
	time.Sleep(2 * time.Millisecond)
	_, err := r.get("s1")
	require.NoError(t, err)
	assert.True(t, s.idleSince().After(before))
}

func TestRegistryCloseAllIdempotent(t *testing.T) {
	r := newSessionRegistry(metrics.NewRegistry("test"))
	require.NoError(t, r.add(newSession("a", config.TransportSSE, nil)))
	require.NoError(t, r.add(newSession("b", config.TransportSSE, nil)))

	require.NoError(t, r.closeAll())
	assert.Equal(t, 0, r.count())

	// Second pass finds nothing and still succeeds.
	require.NoError(t, r.closeAll())
	assert.Equal(t, 0, r.count())
}

func TestSweepEvictsExactlyTheStaleSessions(t *testing.T) {
	reg := metrics.NewRegistry("test")
	r := newSessionRegistry(reg)

	stale1 := newSession("stale1", config.TransportSSE, nil)
	stale2 := newSession("stale2", config.TransportSSE, nil)
	fresh := newSession("fresh", config.TransportSSE, nil)
	for _, s := range []*session{stale1, stale2, fresh} {
		require.NoError(t, r.add(s))
	}

	past := time.Now().Add(-5 * time.Minute)
	stale1.mu.Lock()
	stale1.lastActivity = past
	stale1.mu.Unlock()
	stale2.mu.Lock()
	stale2.lastActivity = past
	stale2.mu.Unlock()

	removed := r.sweepStale(time.Minute)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, r.count())
	_, err := r.get("fresh")
	assert.NoError(t, err)
	_, err = r.get("stale1")
	assert.Error(t, err)

	// The cleaned counter advances by exactly the number removed.
	assert.Equal(t, int64(2), reg.SessionsCleaned())

	// A second sweep with nothing stale leaves the counter alone.
	assert.Equal(t, 0, r.sweepStale(time.Minute))
	assert.Equal(t, int64(2), reg.SessionsCleaned())
}

func TestSweeperStartStopIdempotent(t *testing.T) {
	r := newSessionRegistry(metrics.NewRegistry("test"))

	r.startSweeper(10*time.Millisecond, time.Minute)
	r.startSweeper(10*time.Millisecond, time.Minute)
	r.stopSweeper()
	r.stopSweeper()
}

func TestSweeperEvictsInBackground(t *testing.T) {
	reg := metrics.NewRegistry("test")
	r := newSessionRegistry(reg)

	s := newSession("idle", config.TransportSSE, nil)
	require.NoError(t, r.add(s))
	s.mu.Lock()
	s.lastActivity = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	r.startSweeper(10*time.Millisecond, time.Minute)
	defer r.stopSweeper()

	assert.Eventually(t, func() bool {
		return r.count() == 0 && reg.SessionsCleaned() == 1
	}, time.Second, 5*time.Millisecond)
}
