// Package agentstate holds the process-wide mutable record of gateway
// runtime state: whether a job is running, when it started, and the last
// command received. A single instance is shared across every session.
package agentstate

import (
	"sync"
	"time"

	"github.com/fieldgate/agent/internal/metrics"
)

// State is a thread-safe store guarded by a single mutex; all reads and
// writes go through its methods.
type State struct {
	mu          sync.Mutex
	jobRunning  bool
	uptimeStart time.Time
	lastCommand map[string]any
	metrics     *metrics.Registry
}

// New creates a State whose uptime clock starts now. metricsRegistry may
// be nil (the job_running gauge is then simply never updated).
func New(metricsRegistry *metrics.Registry) *State {
	return &State{uptimeStart: time.Now(), metrics: metricsRegistry}
}

// MarkCommand records the last command message received (START_JOB or
// STOP_JOB), rendered as its envelope map.
func (s *State) MarkCommand(command map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCommand = command
}

// SetJobRunning updates the job_running flag and mirrors it onto the
// job_running gauge, when a metrics registry was supplied.
func (s *State) SetJobRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobRunning = running
	if s.metrics != nil {
		if running {
			s.metrics.JobRunning.Set(1)
		} else {
			s.metrics.JobRunning.Set(0)
		}
	}
}

// Snapshot is a consistent copy of the state plus derived uptime.
type Snapshot struct {
	JobRunning  bool
	UptimeS     int64
	LastCommand map[string]any
}

// Snapshot returns a consistent copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		JobRunning:  s.jobRunning,
		UptimeS:     int64(time.Since(s.uptimeStart).Seconds()),
		LastCommand: s.lastCommand,
	}
}
