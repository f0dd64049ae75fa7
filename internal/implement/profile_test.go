package implement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToBundledDefault(t *testing.T) {
	profile, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 26, profile.RowCount)
	assert.True(t, profile.Articulated)
	assert.Equal(t, profile.WorkingWidthM(), float64(profile.RowCount)*profile.RowSpacingM)
}

func TestLoadPrefersExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"role": "sprayer",
		"name": "custom",
		"row_count": 12,
		"row_spacing_m": 0.76,
		"hitch_to_tool_m": 1.5,
		"articulated": false,
		"sections": [{"kind": "boom", "count": 1, "supports_variable_rate": true}]
	}`), 0o644))

	profile, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sprayer", profile.Role)
	assert.Equal(t, 12, profile.RowCount)
	assert.False(t, profile.Articulated)
}

func TestLoadFallsBackWhenExplicitPathMissing(t *testing.T) {
	profile, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, 26, profile.RowCount)
}

func TestToPayloadOmitsEmptyOptionalFields(t *testing.T) {
	p := Profile{Role: "planter", Name: "base", RowCount: 2, RowSpacingM: 0.5}
	payload := p.ToPayload()
	_, hasManufacturer := payload["manufacturer"]
	_, hasAntennaOffset := payload["antenna_to_articulation_m"]
	assert.False(t, hasManufacturer)
	assert.False(t, hasAntennaOffset)
}
