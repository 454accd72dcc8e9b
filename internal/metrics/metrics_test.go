package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry("streamable-http")

	r.RecordConnection()
	r.RecordRequest("initialize")
	r.RecordRequest("tools/call")
	r.RecordRequest("tools/call")
	r.RecordClient("claude-ai", "1.0")
	r.RecordError()
	r.RecordSessionsCleaned(3)
	r.RecordToolOutcome("gr0_generate", true)
	r.RecordToolOutcome("gr0_generate", false)

	snap := r.Snapshot()
	assert.Equal(t, "streamable-http", snap.Transport)
	assert.Equal(t, int64(1), snap.Connections)
	assert.Equal(t, int64(3), snap.Requests)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(3), snap.SessionsCleaned)
	assert.Equal(t, int64(2), snap.MethodCounts["tools/call"])
	assert.Equal(t, int64(1), snap.ClientCounts["claude-ai/1.0"])
	assert.Equal(t, int64(1), snap.ToolSuccesses["gr0_generate"])
	assert.Equal(t, int64(1), snap.ToolFailures["gr0_generate"])
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry("sse")
	r.RecordRequest("ping")

	snap := r.Snapshot()
	snap.MethodCounts["ping"] = 99

	assert.Equal(t, int64(1), r.Snapshot().MethodCounts["ping"])
}

func TestRecordSessionsCleanedIgnoresNonPositive(t *testing.T) {
	r := NewRegistry("sse")
	r.RecordSessionsCleaned(0)
	r.RecordSessionsCleaned(-5)
	assert.Equal(t, int64(0), r.SessionsCleaned())
}

func TestConcurrentRecording(t *testing.T) {
	r := NewRegistry("stdio")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.RecordRequest("tools/list")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), r.Snapshot().Requests)
}
