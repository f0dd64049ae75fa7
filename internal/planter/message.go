package planter

import (
	"time"

	"github.com/fieldgate/agent/internal/protocol"
	"github.com/fieldgate/agent/internal/sampler"
)

// buildMessage renders one sample (and its optional articulation state) as
// a GNSS_FIX message.
func (s *Simulator) buildMessage(sample sampler.Sample, sequence int, art *articulationPayload) protocol.Message {
	point := sample.Point
	lat, lon := s.params.Anchor.ToGeodetic(point.Coordinate())
	timestamp := float64(time.Now().UnixNano()) / 1e9

	rowCount := s.params.rowCount()
	sections := make([]any, rowCount)
	for i := range sections {
		sections[i] = point.Active
	}

	implement := map[string]any{
		"active":   point.Active,
		"sections": sections,
	}
	if art != nil {
		implement["mode"] = "articulated"
		implement["articulation"] = articulationSubPayload(s.params, art)
	} else if s.params.ImplementProfile != nil {
		implement["mode"] = "fixed"
	}

	accuracy := s.params.AccuracyM
	heading := sample.HeadingDeg
	speed := sample.SpeedMps
	rtkState := protocol.RTKHold
	if point.Active {
		rtkState = protocol.RTKFixed
	}

	return protocol.GnssFix(protocol.GnssFixParams{
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   s.params.AltitudeM,
		Accuracy:   &accuracy,
		Sequence:   sequence,
		Timestamp:  timestamp,
		HeadingDeg: &heading,
		SpeedMps:   &speed,
		RTKState:   rtkState,
		Implement:  implement,
	})
}

func articulationSubPayload(params Params, art *articulationPayload) map[string]any {
	jointLat, jointLon := params.Anchor.ToGeodetic(art.state.ArticulationPoint)
	implLat, implLon := params.Anchor.ToGeodetic(art.state.CurrentCenter)

	return map[string]any{
		"antenna_xy_m":      xyPayload(art.antennaXY.X, art.antennaXY.Y),
		"joint_xy_m":        xyPayload(art.state.ArticulationPoint.X, art.state.ArticulationPoint.Y),
		"implement_xy_m":    xyPayload(art.state.CurrentCenter.X, art.state.CurrentCenter.Y),
		"joint_latlon":      latLonPayload(jointLat, jointLon),
		"implement_latlon":  latLonPayload(implLat, implLon),
		"axis":              xyPayload(art.state.Axis.X, art.state.Axis.Y),
		"theta_rad":         art.state.Theta,
		"has_motion":        art.state.SignificantMotion,
	}
}

func xyPayload(x, y float64) map[string]any {
	return map[string]any{"x": x, "y": y}
}

func latLonPayload(lat, lon float64) map[string]any {
	return map[string]any{"lat": lat, "lon": lon}
}
