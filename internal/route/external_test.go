package route

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldgate/agent/internal/geo"
)

func TestFromInlineENU(t *testing.T) {
	anchor := geo.Anchor{BaseLat: -22, BaseLon: -47}
	east, north := 10.0, 20.0
	active := false
	points, err := FromInline([]RawPoint{{EastM: &east, NorthM: &north, Active: &active}}, anchor)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, Point{EastM: 10, NorthM: 20, Active: false}, points[0])
}

func TestFromInlineLatLonProjectsThroughAnchor(t *testing.T) {
	anchor := geo.Anchor{BaseLat: -22, BaseLon: -47}
	lat, lon := anchor.BaseLat, anchor.BaseLon
	points, err := FromInline([]RawPoint{{Lat: &lat, Lon: &lon}}, anchor)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 0, points[0].EastM, 1e-6)
	assert.InDelta(t, 0, points[0].NorthM, 1e-6)
	assert.True(t, points[0].Active)
}

func TestFromInlineMissingCoordinates(t *testing.T) {
	_, err := FromInline([]RawPoint{{}}, geo.Anchor{})
	assert.Error(t, err)
}

func TestLoadFilePlainJSONDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"points":[
		{"east_m":0,"north_m":0,"active":true},
		{"east_m":0,"north_m":13,"active":true},
		{"east_m":0,"north_m":20,"active":false}
	]}`), 0o644))

	points, err := LoadFile(path, FormatJSON, geo.Anchor{})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Active)
	assert.False(t, points[2].Active)
}

func TestLoadFileBareJSONList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"east_m":1,"north_m":2}]`), 0o644))

	points, err := LoadFile(path, FormatJSON, geo.Anchor{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1.0, points[0].EastM)
}

func TestLoadFileGeoJSONFeatureCollection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.geojson")
	doc := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"active": true},
				"geometry": {"type": "LineString", "coordinates": [[-47.0, -22.0], [-47.0, -21.999]]}
			},
			{
				"type": "Feature",
				"properties": {"active": false},
				"geometry": {"type": "LineString", "coordinates": [[-47.0, -21.999]]}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	anchor := geo.Anchor{BaseLat: -22.0, BaseLon: -47.0}
	points, err := LoadFile(path, FormatGeoJSON, anchor)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Active)
	assert.False(t, points[2].Active)
}

func TestLoadFileGeoJSONRejectsUnsupportedGeometry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Point","coordinates":[-47.0,-22.0]}`), 0o644))

	_, err := LoadFile(path, FormatGeoJSON, geo.Anchor{})
	assert.Error(t, err)
}

func TestResolveSearchesRoots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes", "field.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	resolved, err := Resolve("field.json", []string{"/nonexistent", filepath.Join(dir, "routes")})
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolveNotFound(t *testing.T) {
	_, err := Resolve("missing.json", []string{t.TempDir()})
	assert.Error(t, err)
}
