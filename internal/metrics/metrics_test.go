package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRequest(100*time.Millisecond, nil)
	assert.Equal(t, int64(1), m.RequestsTotal())
	assert.Equal(t, int64(0), m.RequestErrors())

	m.RecordRequest(50*time.Millisecond, checkerr.ErrNetworkError)
	assert.Equal(t, int64(2), m.RequestsTotal())
	assert.Equal(t, int64(1), m.RequestErrors())
	assert.InDelta(t, 75.0, m.RequestLatencyAvgMs(), 0.001)
}

func TestMetrics_RequestLatencyAvg_NoCalls(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	assert.InDelta(t, 0.0, m.RequestLatencyAvgMs(), 0.001)
}

func TestMetrics_RateLimitWait(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRateLimitWait(0)
	m.RecordRateLimitWait(20 * time.Millisecond)
	assert.Equal(t, int64(1), m.Snapshot().RateLimitWaits)
}

func TestMetrics_NodeLifecycle(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordFetchStarted("chainInfo")
	m.RecordFetchStarted("chainInfo")
	m.RecordFetchDiscarded("chainInfo")
	m.RecordFetchCompleted("chainInfo", 10*time.Millisecond, nil)

	m.RecordFetchStarted("address")
	m.RecordFetchCompleted("address", 2*time.Millisecond, checkerr.ErrInvalidAddress)

	snap := m.Snapshot()
	require.Len(t, snap.Nodes, 2)

	assert.Equal(t, "address", snap.Nodes[0].Node)
	assert.Equal(t, int64(1), snap.Nodes[0].Failed)
	assert.InDelta(t, 2.0, snap.Nodes[0].AvgLatencyMs, 0.001)

	assert.Equal(t, "chainInfo", snap.Nodes[1].Node)
	assert.Equal(t, int64(2), snap.Nodes[1].Started)
	assert.Equal(t, int64(1), snap.Nodes[1].Succeeded)
	assert.Equal(t, int64(1), snap.Nodes[1].Discarded)
	assert.InDelta(t, 10.0, snap.Nodes[1].AvgLatencyMs, 0.001)
}

func TestMetrics_ConcurrentNodes(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordFetchStarted("safeInfo")
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, int64(50), snap.Nodes[0].Started)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRequest(time.Millisecond, nil)
	m.RecordFetchStarted("chainState")
	m.Reset()

	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap.RequestsTotal)
	assert.Empty(t, snap.Nodes)
}
