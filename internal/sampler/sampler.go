// Package sampler derives per-sample heading, speed, and inter-sample
// delay from a route point sequence, with bounded variation and a minimum
// speed floor.
package sampler

import (
	"math"

	"github.com/fieldgate/agent/internal/route"
)

// MinSpeedMps is the speed floor for every sample with a non-zero
// displacement; a zero-displacement sample has speed 0.
const MinSpeedMps = 0.05

// Sample is one point annotated with the heading/speed/timing needed to
// stream it as telemetry.
type Sample struct {
	Point       route.Point
	HeadingDeg  float64
	SpeedMps    float64
	TimeDeltaS  float64
}

// Build walks points and derives a Sample for each, using sampleRateHz as
// the nominal rate when a point carries zero displacement (a single-point
// route, or a point that repeats its predecessor). The first point of a
// longer route takes its displacement from the second point.
func Build(points []route.Point, sampleRateHz float64) []Sample {
	samples := make([]Sample, len(points))
	lastHeading := 0.0

	for i, p := range points {
		var dEast, dNorth float64
		switch {
		case i == 0 && len(points) > 1:
			dEast = points[1].EastM - p.EastM
			dNorth = points[1].NorthM - p.NorthM
		case i > 0:
			prev := points[i-1]
			dEast = p.EastM - prev.EastM
			dNorth = p.NorthM - prev.NorthM
		}

		dist := math.Hypot(dEast, dNorth)
		var heading, speed, timeDelta float64
		if dist > 0 {
			heading = math.Mod(math.Atan2(dEast, dNorth)*180.0/math.Pi+360.0, 360.0)
			baseSpeed := dist * sampleRateHz
			variation := speedVariation(i, p.Active)
			speed = math.Max(MinSpeedMps, baseSpeed*(1+variation))
			timeDelta = dist / speed
			lastHeading = heading
		} else {
			heading = lastHeading
			speed = 0
			timeDelta = 1.0 / sampleRateHz
		}

		samples[i] = Sample{Point: p, HeadingDeg: heading, SpeedMps: speed, TimeDeltaS: timeDelta}
	}
	return samples
}

// speedVariation returns a small, deterministic multiplier offset so the
// path is repeatable while still showing subtle texture: the tractor
// slowing on headlands and gently oscillating along a pass.
func speedVariation(index int, active bool) float64 {
	oscillation := math.Sin(float64(index)*0.11) * 0.04
	headlandAdjustment := 0.0
	if !active {
		headlandAdjustment = -0.06
	}
	v := oscillation + headlandAdjustment
	if v < -0.15 {
		return -0.15
	}
	if v > 0.08 {
		return 0.08
	}
	return v
}
