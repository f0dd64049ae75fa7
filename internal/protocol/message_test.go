package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := New(TypeHello, map[string]any{"subscribe": true})
	line, err := EncodeLine(msg)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1])

	decoded, err := DecodeLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, TypeHello, decoded.Type)
	assert.Equal(t, true, decoded.Payload["subscribe"])
}

func TestDecodeLineRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeLine([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecodeLineRequiresType(t *testing.T) {
	_, err := DecodeLine([]byte(`{"payload":{}}`))
	assert.Error(t, err)
}

func TestDecodeLineRejectsNonObjectPayload(t *testing.T) {
	_, err := DecodeLine([]byte(`{"type":"PING","payload":[1,2,3]}`))
	assert.Error(t, err)
}

func TestHelloAckAdvertisesCapabilities(t *testing.T) {
	msg := HelloAck("0.1.0")
	caps, ok := msg.Payload["capabilities"].([]any)
	require.True(t, ok)
	var names []string
	for _, c := range caps {
		names = append(names, c.(string))
	}
	assert.Contains(t, names, "telemetry/rtk")
	assert.Contains(t, names, "corrections/ntrip")
}

func TestGnssFixOmitsAbsentOptionalFields(t *testing.T) {
	msg := GnssFix(GnssFixParams{Latitude: 1, Longitude: 2, Altitude: 3, Sequence: 1, Timestamp: 0})
	_, hasAccuracy := msg.Payload["accuracy"]
	_, hasHeading := msg.Payload["heading_deg"]
	assert.False(t, hasAccuracy)
	assert.False(t, hasHeading)
}

func TestErrorMessageOmitsEmptyCodeAndDetails(t *testing.T) {
	msg := ErrorMessage("bad", "", nil)
	_, hasCode := msg.Payload["code"]
	_, hasDetails := msg.Payload["details"]
	assert.False(t, hasCode)
	assert.False(t, hasDetails)
}
