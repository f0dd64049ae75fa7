// Package implement models the static configuration of the implement
// (planter, sprayer, ...) towed behind the tractor: its section layout and
// the geometry needed to drive the articulation model.
package implement

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

//go:embed data/default.json
var defaultProfileFS embed.FS

const defaultProfilePath = "data/default.json"

// SectionProfile describes one group of implement sections (e.g. seed,
// fertilizer rows).
type SectionProfile struct {
	Kind                  string   `json:"kind"`
	Count                 int      `json:"count"`
	SupportsVariableRate  bool     `json:"supports_variable_rate"`
	WidthM                *float64 `json:"width_m,omitempty"`
}

func (s SectionProfile) toPayload() map[string]any {
	payload := map[string]any{
		"kind":                   s.Kind,
		"count":                  s.Count,
		"supports_variable_rate": s.SupportsVariableRate,
	}
	if s.WidthM != nil {
		payload["width_m"] = *s.WidthM
	}
	return payload
}

// Profile is a structured description of the implement attached to the
// gateway. WorkingWidthM == RowCount * RowSpacingM.
type Profile struct {
	Role                     string    `json:"role"`
	Name                     string    `json:"name"`
	Manufacturer             string    `json:"manufacturer,omitempty"`
	Model                    string    `json:"model,omitempty"`
	RowCount                 int       `json:"row_count"`
	RowSpacingM              float64   `json:"row_spacing_m"`
	HitchToToolM             float64   `json:"hitch_to_tool_m"`
	Articulated              bool      `json:"articulated"`
	AntennaToArticulationM   *float64  `json:"antenna_to_articulation_m,omitempty"`
	ArticulationToToolM      *float64  `json:"articulation_to_tool_m,omitempty"`
	Sections                 []SectionProfile `json:"sections"`
}

// WorkingWidthM returns the implement's effective working width.
func (p Profile) WorkingWidthM() float64 {
	return float64(p.RowCount) * p.RowSpacingM
}

// ToPayload renders the profile for the INFO message's "implement" field.
func (p Profile) ToPayload() map[string]any {
	sections := make([]any, len(p.Sections))
	for i, s := range p.Sections {
		sections[i] = s.toPayload()
	}
	payload := map[string]any{
		"role":            p.Role,
		"name":            p.Name,
		"row_count":       p.RowCount,
		"row_spacing_m":   p.RowSpacingM,
		"hitch_to_tool_m": p.HitchToToolM,
		"articulated":     p.Articulated,
		"sections":        sections,
	}
	if p.Manufacturer != "" {
		payload["manufacturer"] = p.Manufacturer
	}
	if p.Model != "" {
		payload["model"] = p.Model
	}
	if p.AntennaToArticulationM != nil {
		payload["antenna_to_articulation_m"] = *p.AntennaToArticulationM
	}
	if p.ArticulationToToolM != nil {
		payload["articulation_to_tool_m"] = *p.ArticulationToToolM
	}
	return payload
}

// Load resolves the implement profile from explicitPath if given and
// present, falling back to the bundled default profile, logging which
// source won.
func Load(explicitPath string, logger logrus.FieldLogger) (Profile, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if explicitPath != "" {
		if data, err := os.ReadFile(explicitPath); err == nil {
			profile, err := decode(data)
			if err != nil {
				return Profile{}, fmt.Errorf("decode implement profile %s: %w", explicitPath, err)
			}
			logger.WithField("path", explicitPath).Info("loaded implement profile")
			return profile, nil
		}
		logger.WithField("path", explicitPath).Warn("implement profile not found, falling back to bundled default")
	}

	data, err := defaultProfileFS.ReadFile(defaultProfilePath)
	if err != nil {
		return Profile{}, fmt.Errorf("read bundled default implement profile: %w", err)
	}
	profile, err := decode(data)
	if err != nil {
		return Profile{}, fmt.Errorf("decode bundled default implement profile: %w", err)
	}
	logger.Info("using bundled default implement profile")
	return profile, nil
}

func decode(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
