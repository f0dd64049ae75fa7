package route

import "math"

// SerpentineParams configures a deterministic serpentine field pattern.
type SerpentineParams struct {
	FieldLengthM     float64
	HeadlandLengthM  float64
	ImplementWidthM  float64
	PassesPerCycle   int
	SpeedMps         float64
	SampleRateHz     float64
}

// Serpentine generates the ordered point sequence for one full cycle of a
// serpentine field pattern: PassesPerCycle lane traversals connected by
// headland turns. Duplicate consecutive points are suppressed.
func Serpentine(p SerpentineParams) []Point {
	step := p.SpeedMps / p.SampleRateHz

	var points []Point
	laneIndex := 0
	direction := 1 // 1 => increasing north, -1 => decreasing
	var last *xy
	passesCompleted := 0
	targetPasses := p.PassesPerCycle
	if targetPasses < 2 {
		targetPasses = 2
	}

	for passesCompleted < targetPasses {
		x := float64(laneIndex) * p.ImplementWidthM
		startY, endY := 0.0, p.FieldLengthM
		if direction < 0 {
			startY, endY = p.FieldLengthM, 0.0
		}

		for _, pt := range interpolate(xy{x, startY}, xy{x, endY}, step, last) {
			points = append(points, Point{EastM: pt.x, NorthM: pt.y, Active: true})
			last = &pt
		}

		headlandY := endY + float64(direction)*p.HeadlandLengthM
		if p.HeadlandLengthM > 0 {
			for _, pt := range interpolate(xy{x, endY}, xy{x, headlandY}, step, last) {
				points = append(points, Point{EastM: pt.x, NorthM: pt.y, Active: false})
				last = &pt
			}
		}

		passes := p.PassesPerCycle
		if passes < 1 {
			passes = 1
		}
		nextLane := (laneIndex + 1) % passes
		nextX := float64(nextLane) * p.ImplementWidthM
		for _, pt := range interpolate(xy{x, headlandY}, xy{nextX, headlandY}, step, last) {
			points = append(points, Point{EastM: pt.x, NorthM: pt.y, Active: false})
			last = &pt
		}

		nextDirection := -direction
		startNextY := 0.0
		if nextDirection < 0 {
			startNextY = p.FieldLengthM
		}
		for _, pt := range interpolate(xy{nextX, headlandY}, xy{nextX, startNextY}, step, last) {
			points = append(points, Point{EastM: pt.x, NorthM: pt.y, Active: false})
			last = &pt
		}

		laneIndex = nextLane
		direction = nextDirection
		passesCompleted++
	}

	return points
}

type xy struct{ x, y float64 }

// interpolate walks from start to end in roughly step-sized increments,
// skipping any point equal to last (suppresses duplicate consecutive
// points across segment boundaries) and emitting exactly one point for a
// zero-length segment the first time it is reached.
func interpolate(start, end xy, step float64, last *xy) []xy {
	dist := math.Hypot(end.x-start.x, end.y-start.y)
	if dist == 0 {
		if last == nil || *last != start {
			return []xy{start}
		}
		return nil
	}
	steps := int(math.Ceil(dist / step))
	if steps < 1 {
		steps = 1
	}
	out := make([]xy, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if t > 1.0 {
			t = 1.0
		}
		pt := xy{start.x + (end.x-start.x)*t, start.y + (end.y-start.y)*t}
		if last != nil && *last == pt {
			continue
		}
		out = append(out, pt)
		last = &pt
	}
	return out
}
