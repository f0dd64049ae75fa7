package agentstate

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/fieldgate/agent/internal/metrics"
)

func TestSnapshotReflectsMutators(t *testing.T) {
	s := New(nil)
	snap := s.Snapshot()
	assert.False(t, snap.JobRunning)
	assert.Nil(t, snap.LastCommand)

	s.SetJobRunning(true)
	s.MarkCommand(map[string]any{"type": "START_JOB"})

	snap = s.Snapshot()
	assert.True(t, snap.JobRunning)
	assert.Equal(t, "START_JOB", snap.LastCommand["type"])
	assert.GreaterOrEqual(t, snap.UptimeS, int64(0))
}

func TestSetJobRunningUpdatesMetricsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(m)

	s.SetJobRunning(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JobRunning))

	s.SetJobRunning(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.JobRunning))
}

func TestConcurrentAccessDoesNotRace(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SetJobRunning(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
}
