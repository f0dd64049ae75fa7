package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateDeltaTranslateDistance(t *testing.T) {
	a := Coordinate{X: 10, Y: 20}
	b := Coordinate{X: 4, Y: 5}

	dx, dy := a.Delta(b)
	assert.Equal(t, 6.0, dx)
	assert.Equal(t, 15.0, dy)

	translated := b.Translate(dx, dy)
	assert.Equal(t, a, translated)

	assert.InDelta(t, 16.1555, a.DistanceTo(b), 1e-3)
}

func TestRoundTripNearAnchor(t *testing.T) {
	anchor := Anchor{BaseLat: -22.0, BaseLon: -47.0}

	cases := []Coordinate{
		{X: 0, Y: 0},
		{X: 120.5, Y: -85.25},
		{X: -4000, Y: 3000},
	}
	for _, c := range cases {
		lat, lon := anchor.ToGeodetic(c)
		back := anchor.ToENU(lat, lon)
		assert.InDelta(t, c.X, back.X, 1e-6)
		assert.InDelta(t, c.Y, back.Y, 1e-6)
	}
}

func TestToGeodeticAnchorIsIdentity(t *testing.T) {
	anchor := Anchor{BaseLat: -22.0, BaseLon: -47.0}
	lat, lon := anchor.ToGeodetic(Coordinate{})
	assert.Equal(t, anchor.BaseLat, lat)
	assert.Equal(t, anchor.BaseLon, lon)
}
