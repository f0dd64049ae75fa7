package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerpentineActiveRunCount(t *testing.T) {
	p := SerpentineParams{
		FieldLengthM:    20,
		HeadlandLengthM: 3,
		ImplementWidthM: 13,
		PassesPerCycle:  2,
		SpeedMps:        130,
		SampleRateHz:    5,
	}
	points := Serpentine(p)
	require.NotEmpty(t, points)

	runs := 0
	inRun := false
	for _, pt := range points {
		if pt.Active && !inRun {
			runs++
			inRun = true
		} else if !pt.Active {
			inRun = false
		}
	}
	assert.Equal(t, p.PassesPerCycle, runs)
}

func TestSerpentineActiveRunsHaveConstantX(t *testing.T) {
	p := SerpentineParams{
		FieldLengthM:    20,
		HeadlandLengthM: 3,
		ImplementWidthM: 13,
		PassesPerCycle:  3,
		SpeedMps:        5,
		SampleRateHz:    5,
	}
	points := Serpentine(p)

	var runX *float64
	for _, pt := range points {
		if !pt.Active {
			runX = nil
			continue
		}
		if runX == nil {
			x := pt.EastM
			runX = &x
			continue
		}
		assert.InDelta(t, *runX, pt.EastM, 1e-9)
	}
}

func TestSerpentineConsecutivePointsWithinStep(t *testing.T) {
	p := SerpentineParams{
		FieldLengthM:    20,
		HeadlandLengthM: 3,
		ImplementWidthM: 13,
		PassesPerCycle:  2,
		SpeedMps:        5,
		SampleRateHz:    5,
	}
	step := p.SpeedMps / p.SampleRateHz
	points := Serpentine(p)
	for i := 1; i < len(points); i++ {
		d := points[i].Coordinate().DistanceTo(points[i-1].Coordinate())
		assert.LessOrEqual(t, d, step+1e-6)
	}
}

func TestSerpentineNoDuplicateConsecutivePoints(t *testing.T) {
	p := SerpentineParams{
		FieldLengthM:    20,
		HeadlandLengthM: 3,
		ImplementWidthM: 13,
		PassesPerCycle:  2,
		SpeedMps:        5,
		SampleRateHz:    5,
	}
	points := Serpentine(p)
	for i := 1; i < len(points); i++ {
		if points[i] == points[i-1] {
			t.Fatalf("duplicate consecutive point at index %d: %+v", i, points[i])
		}
	}
}
