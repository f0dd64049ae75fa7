package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldgate/agent/internal/route"
)

func TestBuildSpeedAndTimeDeltaInvariants(t *testing.T) {
	points := []route.Point{
		{EastM: 0, NorthM: 0, Active: true},
		{EastM: 0, NorthM: 2, Active: true},
		{EastM: 0, NorthM: 4, Active: false},
		{EastM: 2, NorthM: 4, Active: false},
	}
	samples := Build(points, 5)
	require.Len(t, samples, len(points))
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.SpeedMps, MinSpeedMps)
		assert.Greater(t, s.TimeDeltaS, 0.0)
	}
}

func TestBuildHeadingPointsNorthForNorthwardTravel(t *testing.T) {
	points := []route.Point{
		{EastM: 0, NorthM: 0, Active: true},
		{EastM: 0, NorthM: 2, Active: true},
	}
	samples := Build(points, 5)
	assert.InDelta(t, 0.0, samples[0].HeadingDeg, 1e-9)
	assert.InDelta(t, 0.0, samples[1].HeadingDeg, 1e-9)
}

func TestBuildZeroDisplacementInheritsHeadingAndRestsSpeed(t *testing.T) {
	points := []route.Point{
		{EastM: 0, NorthM: 0, Active: true},
		{EastM: 0, NorthM: 2, Active: true},
		{EastM: 0, NorthM: 2, Active: true},
	}
	samples := Build(points, 4)
	assert.Equal(t, samples[1].HeadingDeg, samples[2].HeadingDeg)
	assert.Equal(t, 0.0, samples[2].SpeedMps)
	assert.InDelta(t, 0.25, samples[2].TimeDeltaS, 1e-9)
}

func TestSpeedVariationIsClampedAndDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		v := speedVariation(i, i%2 == 0)
		assert.GreaterOrEqual(t, v, -0.15)
		assert.LessOrEqual(t, v, 0.08)
		assert.Equal(t, v, speedVariation(i, i%2 == 0))
	}
}
