package planter

import (
	"github.com/fieldgate/agent/internal/route"
	"github.com/fieldgate/agent/internal/sampler"
)

// buildCycle produces the route points (serpentine or externally supplied)
// and derives samples from them. It is computed once per worker on first
// use and cached to avoid rebuilding a potentially large point sequence
// on every loop pass.
func (p Params) buildCycle() []sampler.Sample {
	points := p.InlineRoute
	if points == nil {
		points = route.Serpentine(route.SerpentineParams{
			FieldLengthM:    p.FieldLengthM,
			HeadlandLengthM: p.HeadlandLengthM,
			ImplementWidthM: p.implementWidthM(),
			PassesPerCycle:  p.PassesPerCycle,
			SpeedMps:        p.SpeedMps,
			SampleRateHz:    p.SampleRateHz,
		})
	}
	return sampler.Build(points, p.SampleRateHz)
}
