// Package kinematics derives the articulation joint, implement axis, and
// implement centre of a trailing implement from antenna motion history.
//
// The model mirrors the geometry used by the field monitor so the gateway
// reproduces the same articulation behaviour when streaming telemetry. All
// calculations operate in the local ENU frame (meters); heading 0 rad points
// north, with positive rotation clockwise.
package kinematics

import (
	"math"

	"github.com/fieldgate/agent/internal/geo"
)

// EpsStep is the minimum antenna displacement (m) considered reliable for
// deriving a heading.
const EpsStep = 0.01

// EpsMotion is the minimum implement-centre displacement (m) considered
// significant motion between samples.
const EpsMotion = 0.01

// Vec2 is a plane vector, used for unit forward/right directions.
type Vec2 struct {
	X float64
	Y float64
}

// State is a frozen snapshot of the articulated implement geometry at one
// sample.
type State struct {
	LastCenter        geo.Coordinate
	CurrentCenter      geo.Coordinate
	ArticulationPoint geo.Coordinate
	Axis              Vec2
	Theta             float64
	SignificantMotion bool
}

// Input bundles the parameters needed to compute one articulation sample.
// Optional fields use pointers so the zero value of float64 cannot be
// mistaken for "absent".
type Input struct {
	LastXY     geo.Coordinate
	CurXY      geo.Coordinate
	Fwd        Vec2
	Right      Vec2
	AntennaOffset      float64 // distance from antenna to articulation point
	LongOffset float64 // additional longitudinal hitch offset
	LatOffset  float64 // lateral hitch offset
	WorkWidthM float64

	ArticulationToToolM *float64
	ImplTheta           *float64
	TractorHeading      *float64
	PrevDisplacement    *Vec2
	LastFwd             *Vec2
	LastRight           *Vec2
}

// Compute derives the articulation state for one sample. It is a pure
// function: deterministic, no I/O.
func Compute(in Input) State {
	lHitch := math.Max(in.AntennaOffset+in.LongOffset, 0.1)
	lImpl := 0.0
	if in.ArticulationToToolM != nil {
		lImpl = *in.ArticulationToToolM
	} else {
		lImpl = math.Max(0.5*in.WorkWidthM, 1.0)
	}

	joint := joinPoint(in.CurXY, in.Fwd, in.Right, lHitch, in.LatOffset)

	dx, dy := in.CurXY.Delta(in.LastXY)
	dist := math.Hypot(dx, dy)

	tractorHeading := estimateTractorHeading(dx, dy, dist, in.TractorHeading, in.ImplTheta)

	kappa := estimateCurvature(dx, dy, dist, in.PrevDisplacement)

	var thetaI float64
	if in.ImplTheta == nil {
		thetaI = tractorHeading
	} else {
		alpha := clamp(lHitch/(lHitch+lImpl), 0.3, 0.9)
		thetaI = wrap(*in.ImplTheta + alpha*kappa*dist)
		errHeading := wrap(tractorHeading - thetaI)
		relax := clamp(dist/math.Max(lImpl, 0.1), 0, 1)
		thetaI = wrap(thetaI + (1-alpha)*errHeading*relax)
	}

	axis := axisFromTheta(thetaI)
	current := joint.Translate(lImpl*axis.X, lImpl*axis.Y)

	lastFwd := in.Fwd
	if in.LastFwd != nil {
		lastFwd = *in.LastFwd
	}
	lastRight := in.Right
	if in.LastRight != nil {
		lastRight = *in.LastRight
	}
	lastJoint := joinPoint(in.LastXY, lastFwd, lastRight, lHitch, in.LatOffset)

	lastAxis := axis
	if in.ImplTheta != nil {
		lastAxis = axisFromTheta(*in.ImplTheta)
	}
	last := lastJoint.Translate(lImpl*lastAxis.X, lImpl*lastAxis.Y)

	return State{
		LastCenter:        last,
		CurrentCenter:      current,
		ArticulationPoint: joint,
		Axis:              axis,
		Theta:             thetaI,
		SignificantMotion: current.DistanceTo(last) >= EpsMotion,
	}
}

func joinPoint(cur geo.Coordinate, fwd, right Vec2, lHitch, latOffset float64) geo.Coordinate {
	return geo.Coordinate{
		X: cur.X - lHitch*fwd.X + latOffset*right.X,
		Y: cur.Y - lHitch*fwd.Y + latOffset*right.Y,
	}
}

func estimateTractorHeading(dx, dy, dist float64, tractorHeading, implTheta *float64) float64 {
	switch {
	case dist >= EpsStep:
		return math.Atan2(dx, dy)
	case tractorHeading != nil:
		return *tractorHeading
	case implTheta != nil:
		return *implTheta
	default:
		return 0.0
	}
}

func estimateCurvature(dx, dy, dist float64, prev *Vec2) float64 {
	if prev == nil || dist < EpsStep {
		return 0.0
	}
	prevDist := math.Hypot(prev.X, prev.Y)
	if prevDist < EpsStep {
		return 0.0
	}
	prevHeading := math.Atan2(prev.X, prev.Y)
	curHeading := math.Atan2(dx, dy)
	dpsi := wrap(curHeading - prevHeading)
	return dpsi / math.Max(dist, 1e-6)
}

func axisFromTheta(theta float64) Vec2 {
	x, y := -math.Sin(theta), -math.Cos(theta)
	norm := math.Hypot(x, y)
	if norm == 0 {
		norm = 1
	}
	return Vec2{X: x / norm, Y: y / norm}
}

// wrap folds an angle (radians) to [-pi, pi).
func wrap(angle float64) float64 {
	a := math.Mod(angle+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
