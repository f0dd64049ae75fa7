// Package route produces the ordered sequence of ENU points a simulated
// vehicle travels: either a deterministic serpentine field pattern or an
// externally supplied route (inline list or GeoJSON/plain-JSON file).
package route

import "github.com/fieldgate/agent/internal/geo"

// Point is one point of a route: its ENU position and whether the implement
// should be active (planting) there.
type Point struct {
	EastM  float64
	NorthM float64
	Active bool
}

// Coordinate returns the point's position as a geo.Coordinate.
func (p Point) Coordinate() geo.Coordinate {
	return geo.Coordinate{X: p.EastM, Y: p.NorthM}
}
