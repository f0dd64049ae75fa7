package route

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldgate/agent/internal/geo"
)

// Format selects how a route file on disk should be interpreted.
type Format string

const (
	// FormatJSON is a plain JSON document: {"points": [...]}  or a bare list.
	FormatJSON Format = "json"
	// FormatGeoJSON accepts a FeatureCollection, Feature, or raw geometry
	// (LineString / MultiLineString).
	FormatGeoJSON Format = "geojson"
)

// RawPoint is the normalised form accepted for an inline/JSON route point:
// either east/north meters or lat/lon degrees, plus an optional active flag
// (defaults to true).
type RawPoint struct {
	EastM  *float64
	NorthM *float64
	Lat    *float64
	Lon    *float64
	Active *bool
}

// Normalize converts a RawPoint into a Point, projecting lat/lon through
// anchor when ENU coordinates were not supplied directly.
func (r RawPoint) Normalize(anchor geo.Anchor) (Point, error) {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	if r.EastM != nil && r.NorthM != nil {
		return Point{EastM: *r.EastM, NorthM: *r.NorthM, Active: active}, nil
	}
	if r.Lat != nil && r.Lon != nil {
		c := anchor.ToENU(*r.Lat, *r.Lon)
		return Point{EastM: c.X, NorthM: c.Y, Active: active}, nil
	}
	return Point{}, fmt.Errorf("route point missing east/north or lat/lon")
}

// FromInline normalises a caller-supplied list of points, already in
// RawPoint form (the transport-facing caller is responsible for turning
// whatever wire representation it received — object or tuple — into a
// RawPoint).
func FromInline(points []RawPoint, anchor geo.Anchor) ([]Point, error) {
	out := make([]Point, 0, len(points))
	for i, rp := range points {
		p, err := rp.Normalize(anchor)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Resolve locates a route file by trying name as-is when it is an absolute
// path, then joined against each of roots in order (cwd, agent root, agent-root config dir, bundled
// routes directory are the callers' typical roots).
func Resolve(name string, roots []string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	for _, root := range roots {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("route file %q not found in search roots", name)
}

// LoadFile reads and normalises a route file in the given format.
func LoadFile(path string, format Format, anchor geo.Anchor) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	switch format {
	case FormatGeoJSON:
		return parseGeoJSON(data, anchor)
	default:
		return parseJSON(data, anchor)
	}
}

type jsonPoint struct {
	EastM  *float64 `json:"east_m"`
	NorthM *float64 `json:"north_m"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Active *bool    `json:"active"`
}

func (j jsonPoint) raw() RawPoint {
	return RawPoint{EastM: j.EastM, NorthM: j.NorthM, Lat: j.Lat, Lon: j.Lon, Active: j.Active}
}

type jsonDocument struct {
	Points []jsonPoint `json:"points"`
}

func parseJSON(data []byte, anchor geo.Anchor) ([]Point, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Points) > 0 {
		return normalizeJSONPoints(doc.Points, anchor)
	}
	var bare []jsonPoint
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("decode route JSON: %w", err)
	}
	return normalizeJSONPoints(bare, anchor)
}

func normalizeJSONPoints(items []jsonPoint, anchor geo.Anchor) ([]Point, error) {
	raws := make([]RawPoint, 0, len(items))
	for _, it := range items {
		raws = append(raws, it.raw())
	}
	return FromInline(raws, anchor)
}

// geoJSON models the subset of GeoJSON this module understands:
// FeatureCollection, Feature, or a raw LineString/MultiLineString geometry.
type geoJSON struct {
	Type       string          `json:"type"`
	Features   []geoJSONFeature `json:"features"`
	Properties geoJSONProps    `json:"properties"`
	Geometry   *geoJSONGeometry `json:"geometry"`
	// raw geometry fields, present when Type is itself a geometry type
	Coordinates json.RawMessage `json:"coordinates"`
}

type geoJSONFeature struct {
	Properties geoJSONProps    `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONProps struct {
	Active *bool `json:"active"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func parseGeoJSON(data []byte, anchor geo.Anchor) ([]Point, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode GeoJSON: %w", err)
	}

	var points []Point
	switch doc.Type {
	case "FeatureCollection":
		for _, f := range doc.Features {
			pts, err := geometryPoints(f.Geometry, f.Properties.activeOrDefault(), anchor)
			if err != nil {
				return nil, err
			}
			points = append(points, pts...)
		}
	case "Feature":
		geom := geoJSONGeometry{}
		if doc.Geometry != nil {
			geom = *doc.Geometry
		}
		pts, err := geometryPoints(geom, doc.Properties.activeOrDefault(), anchor)
		if err != nil {
			return nil, err
		}
		points = append(points, pts...)
	case "LineString", "MultiLineString":
		pts, err := geometryPoints(geoJSONGeometry{Type: doc.Type, Coordinates: doc.Coordinates}, true, anchor)
		if err != nil {
			return nil, err
		}
		points = append(points, pts...)
	default:
		return nil, fmt.Errorf("unsupported GeoJSON root type %q", doc.Type)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("GeoJSON route produced no points")
	}
	return points, nil
}

func (p geoJSONProps) activeOrDefault() bool {
	if p.Active == nil {
		return true
	}
	return *p.Active
}

func geometryPoints(geom geoJSONGeometry, active bool, anchor geo.Anchor) ([]Point, error) {
	switch geom.Type {
	case "LineString":
		var coords [][2]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode LineString coordinates: %w", err)
		}
		return lineStringPoints(coords, active, anchor), nil
	case "MultiLineString":
		var lines [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &lines); err != nil {
			return nil, fmt.Errorf("decode MultiLineString coordinates: %w", err)
		}
		var out []Point
		for _, coords := range lines {
			out = append(out, lineStringPoints(coords, active, anchor)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported GeoJSON geometry type %q", geom.Type)
	}
}

func lineStringPoints(coords [][2]float64, active bool, anchor geo.Anchor) []Point {
	out := make([]Point, 0, len(coords))
	for _, pair := range coords {
		lon, lat := pair[0], pair[1]
		c := anchor.ToENU(lat, lon)
		out = append(out, Point{EastM: c.X, NorthM: c.Y, Active: active})
	}
	return out
}
