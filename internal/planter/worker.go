package planter

import (
	"math"
	"sync"
	"time"

	"github.com/fieldgate/agent/internal/geo"
	"github.com/fieldgate/agent/internal/kinematics"
	"github.com/fieldgate/agent/internal/sampler"
	"github.com/fieldgate/agent/internal/sessionref"
)

// waitForStreamInterval is how long the worker sleeps between checks of
// session.CanStream() while waiting for handshake/subscription.
const waitForStreamInterval = 200 * time.Millisecond

// worker is the background producer that streams planter telemetry for one
// session.
type worker struct {
	sim     *Simulator
	session sessionref.Ref
	params  Params

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	cycle []sampler.Sample
}

func newWorker(sim *Simulator, session sessionref.Ref) *worker {
	return &worker{
		sim:     sim,
		session: session,
		params:  sim.snapshotParams(),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (w *worker) start() { go w.run() }

func (w *worker) stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// join waits up to 2s for the worker goroutine to exit.
func (w *worker) join() {
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
	}
}

func (w *worker) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *worker) run() {
	defer close(w.done)
	defer w.sim.onWorkerFinished(w.session.ID())

	sequence := 1
	for !w.stopped() {
		if !w.session.CanStream() {
			if !w.sleepOrStop(waitForStreamInterval) {
				return
			}
			continue
		}
		if w.cycle == nil {
			w.cycle = w.params.buildCycle()
			if len(w.cycle) == 0 {
				return
			}
		}

		hist := newArticulationHistory()
		for _, sample := range w.cycle {
			if w.stopped() {
				return
			}
			if w.session.AwaitingAck() {
				// Back-pressure: skip this sample while an ack is pending,
				// still sleeping its interval so pacing stays realistic.
				if !w.sleepOrStop(secondsToDuration(sample.TimeDeltaS)) {
					return
				}
				continue
			}

			var articulation *articulationPayload
			if w.params.ImplementProfile != nil && w.params.ImplementProfile.Articulated {
				articulation = hist.step(sample, w.params)
			}

			msg := w.sim.buildMessage(sample, sequence, articulation)
			sent := w.session.SendMessage(msg)
			if sent {
				if w.sim.metrics != nil {
					w.sim.metrics.FixesSent.WithLabelValues(w.session.ID()).Inc()
				}
				sequence++
			}
			if !w.sleepOrStop(secondsToDuration(sample.TimeDeltaS)) {
				return
			}
		}
		if !w.params.LoopForever {
			return
		}
		// cycle stays cached across passes; only articulation history resets.
	}
}

// sleepOrStop sleeps for d or returns false early if the worker is signalled
// to stop, bounding cancellation latency to at most one sample interval.
func (w *worker) sleepOrStop(d time.Duration) bool {
	select {
	case <-w.stopCh:
		return false
	case <-time.After(d):
		return true
	}
}

// secondsToDuration converts a sample's time delta in seconds to a Duration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// articulationHistory threads the prior antenna position, heading, and
// displacement across samples within one cycle; it is recreated for every
// new cycle pass so articulation state does not leak across loops.
type articulationHistory struct {
	hasPrior         bool
	lastXY           geo.Coordinate
	lastFwd          kinematics.Vec2
	lastRight        kinematics.Vec2
	implTheta        *float64
	prevDisplacement *kinematics.Vec2
}

func newArticulationHistory() *articulationHistory {
	return &articulationHistory{}
}

type articulationPayload struct {
	state     kinematics.State
	antennaXY geo.Coordinate
}

func (h *articulationHistory) step(sample sampler.Sample, params Params) *articulationPayload {
	curXY := sample.Point.Coordinate()
	heading := sample.HeadingDeg * math.Pi / 180.0
	fwd := kinematics.Vec2{X: math.Sin(heading), Y: math.Cos(heading)}
	right := kinematics.Vec2{X: fwd.Y, Y: -fwd.X}

	profile := params.ImplementProfile
	antennaOffset := 0.0
	if profile.AntennaToArticulationM != nil {
		antennaOffset = *profile.AntennaToArticulationM
	}

	lastXY := curXY
	if h.hasPrior {
		lastXY = h.lastXY
	}

	in := kinematics.Input{
		LastXY:              lastXY,
		CurXY:               curXY,
		Fwd:                 fwd,
		Right:               right,
		AntennaOffset:       antennaOffset,
		LongOffset:          0,
		LatOffset:           0,
		WorkWidthM:          params.implementWidthM(),
		ArticulationToToolM: profile.ArticulationToToolM,
		ImplTheta:           h.implTheta,
		PrevDisplacement:    h.prevDisplacement,
	}
	if h.hasPrior {
		lastFwd := h.lastFwd
		lastRight := h.lastRight
		in.LastFwd = &lastFwd
		in.LastRight = &lastRight
	}

	state := kinematics.Compute(in)

	dx, dy := curXY.Delta(lastXY)
	disp := kinematics.Vec2{X: dx, Y: dy}

	h.hasPrior = true
	h.lastXY = curXY
	h.lastFwd = fwd
	h.lastRight = right
	theta := state.Theta
	h.implTheta = &theta
	h.prevDisplacement = &disp

	return &articulationPayload{state: state, antennaXY: curXY}
}
