package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldgate/agent/internal/geo"
)

func TestComputeFirstSampleFallsBackToDefaultHeading(t *testing.T) {
	in := Input{
		LastXY:     geo.Coordinate{X: 0, Y: 0},
		CurXY:      geo.Coordinate{X: 0, Y: 0},
		Fwd:        Vec2{X: 0, Y: 1},
		Right:      Vec2{X: 1, Y: 0},
		AntennaOffset: 3.0,
		WorkWidthM: 13.0,
	}
	state := Compute(in)
	assert.GreaterOrEqual(t, state.Theta, -math.Pi)
	assert.Less(t, state.Theta, math.Pi)
	assert.False(t, state.SignificantMotion)
}

func TestComputeThetaStaysInRange(t *testing.T) {
	lastXY := geo.Coordinate{X: 0, Y: 0}
	theta := 0.0
	var prevDisp *Vec2

	for i := 0; i < 200; i++ {
		heading := float64(i) * 0.37
		fwd := Vec2{X: math.Sin(heading), Y: math.Cos(heading)}
		right := Vec2{X: fwd.Y, Y: -fwd.X}
		curXY := lastXY.Translate(2*fwd.X, 2*fwd.Y)

		in := Input{
			LastXY:        lastXY,
			CurXY:         curXY,
			Fwd:           fwd,
			Right:         right,
			AntennaOffset: 3.0,
			WorkWidthM:    13.0,
			ImplTheta:     &theta,
			PrevDisplacement: prevDisp,
		}
		state := Compute(in)
		assert.GreaterOrEqual(t, state.Theta, -math.Pi)
		assert.Less(t, state.Theta, math.Pi)

		dx, dy := curXY.Delta(lastXY)
		disp := Vec2{X: dx, Y: dy}
		prevDisp = &disp
		theta = state.Theta
		lastXY = curXY
	}
}

func TestComputeArticulationDistanceMatchesOffset(t *testing.T) {
	antennaOffset := 3.0
	longOffset := 0.5
	in := Input{
		LastXY:        geo.Coordinate{X: 0, Y: 0},
		CurXY:         geo.Coordinate{X: 0, Y: 2},
		Fwd:           Vec2{X: 0, Y: 1},
		Right:         Vec2{X: 1, Y: 0},
		AntennaOffset: antennaOffset,
		LongOffset:    longOffset,
		WorkWidthM:    13.0,
	}
	state := Compute(in)
	antenna := in.CurXY
	dist := antenna.DistanceTo(state.ArticulationPoint)
	assert.InDelta(t, antennaOffset+longOffset, dist, 1e-9)
}

func TestAxisFromThetaIsUnit(t *testing.T) {
	for _, theta := range []float64{0, math.Pi / 4, -math.Pi / 2, math.Pi - 0.01} {
		axis := axisFromTheta(theta)
		assert.InDelta(t, 1.0, math.Hypot(axis.X, axis.Y), 1e-9)
	}
}

func TestWrapFoldsToRange(t *testing.T) {
	assert.InDelta(t, 0.0, wrap(2*math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi+0.1, wrap(math.Pi+0.1), 1e-9)
}
