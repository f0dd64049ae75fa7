// Package planter implements the planter field simulator: a per-session
// worker that composes a route, a sample builder, the articulation model,
// and the ENU/geodetic projector into GNSS_FIX messages at a configured
// rate, honouring subscription and pending-ack back-pressure.
package planter

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fieldgate/agent/internal/geo"
	"github.com/fieldgate/agent/internal/implement"
	"github.com/fieldgate/agent/internal/metrics"
	"github.com/fieldgate/agent/internal/route"
	"github.com/fieldgate/agent/internal/sessionref"
)

// Params configures the simulator. When InlineRoute is non-nil it is used
// as the route and the serpentine fields (FieldLengthM etc.) are ignored.
type Params struct {
	ImplementProfile *implement.Profile

	FieldLengthM    float64
	HeadlandLengthM float64
	SpeedMps        float64
	SampleRateHz    float64
	PassesPerCycle  int

	// InlineRoute, when non-nil, replaces the serpentine generator with an
	// externally supplied route.
	InlineRoute []route.Point

	Anchor    geo.Anchor
	AltitudeM float64
	AccuracyM float64

	// LoopForever repeats the cycle indefinitely; false exits the worker
	// after one pass through the route.
	LoopForever bool
}

func (p Params) implementWidthM() float64 {
	if p.ImplementProfile != nil {
		return p.ImplementProfile.WorkingWidthM()
	}
	return 13.0
}

func (p Params) rowCount() int {
	if p.ImplementProfile != nil {
		return p.ImplementProfile.RowCount
	}
	return 26
}

// Simulator satisfies session.Publisher: it starts one worker goroutine per
// registered session.
type Simulator struct {
	params  Params
	logger  logrus.FieldLogger
	metrics *metrics.Registry

	mu      sync.Mutex
	workers map[string]*worker
}

// New creates a Simulator. metrics may be nil (collectors are skipped).
func New(params Params, logger logrus.FieldLogger, metricsRegistry *metrics.Registry) *Simulator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Simulator{
		params:  params,
		logger:  logger.WithField("component", "planter_simulator"),
		metrics: metricsRegistry,
		workers: make(map[string]*worker),
	}
}

// snapshotParams returns a copy of the current params under lock, so a
// worker can read InlineRoute/other fields without racing UpdateRoute.
func (s *Simulator) snapshotParams() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// RegisterSession starts a dedicated worker for session.
func (s *Simulator) RegisterSession(session sessionref.Ref) {
	w := newWorker(s, session)
	s.mu.Lock()
	s.workers[session.ID()] = w
	if s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(len(s.workers)))
	}
	s.mu.Unlock()
	w.start()
}

// UpdateRoute swaps in a freshly loaded route for sessions registered from
// this point on. Workers already running keep the cycle they cached at
// their first pass (cycle caching is per-worker, not a live config knob);
// only a session that registers after the swap sees the new route.
func (s *Simulator) UpdateRoute(points []route.Point) {
	s.mu.Lock()
	s.params.InlineRoute = points
	s.mu.Unlock()
}

// UnregisterSession stops and removes session's worker, if any.
func (s *Simulator) UnregisterSession(session sessionref.Ref) {
	s.mu.Lock()
	w, ok := s.workers[session.ID()]
	if ok {
		delete(s.workers, session.ID())
	}
	if s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(len(s.workers)))
	}
	s.mu.Unlock()
	if ok {
		w.stop()
		w.join()
	}
}

// onWorkerFinished removes a worker that exited on its own (a finite, non-
// looping route ran out).
func (s *Simulator) onWorkerFinished(sessionID string) {
	s.mu.Lock()
	delete(s.workers, sessionID)
	if s.metrics != nil {
		s.metrics.SessionsActive.Set(float64(len(s.workers)))
	}
	s.mu.Unlock()
}

// Stop signals every worker to stop and waits (with a 2s per-worker budget)
// for them to exit.
func (s *Simulator) Stop() {
	s.mu.Lock()
	workers := make([]*worker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.workers = make(map[string]*worker)
	s.mu.Unlock()

	for _, w := range workers {
		w.stop()
	}
	for _, w := range workers {
		w.join()
	}
}
