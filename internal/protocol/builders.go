package protocol

// Error codes carried in an ERROR message's payload.code field.
const (
	CodeBadJSON           = "bad_json"
	CodeHandshakeRequired = "handshake_required"
	CodeUnsupported       = "unsupported"
	CodeInvalidPayload    = "invalid_payload"
	CodeInvalidPackage    = "invalid_package"
)

// Error is a sentinel error type for the gateway's closed set of protocol
// failures: a named string type whose value doubles as both the Go error
// text and the wire protocol.code.
type Error string

func (e Error) Error() string { return string(e) }

// Sentinel errors for the closed set of protocol failure reasons the
// gateway reports. Callers that detect one of these conditions pass the
// sentinel to ErrorMessageFor, which turns it into the matching ERROR
// reply.
const (
	ErrBadJSON           = Error(CodeBadJSON)
	ErrHandshakeRequired = Error(CodeHandshakeRequired)
	ErrUnsupported       = Error(CodeUnsupported)
	ErrInvalidPayload    = Error(CodeInvalidPayload)
	ErrInvalidPackage    = Error(CodeInvalidPackage)
)

// ErrorMessageFor builds an ERROR message from a sentinel Error, using the
// sentinel's own string value as payload.code.
func ErrorMessageFor(reason string, err Error, details map[string]any) Message {
	return ErrorMessage(reason, string(err), details)
}

// Capabilities is the closed set advertised in HELLO_ACK.
var Capabilities = []string{
	"telemetry/basic",
	"telemetry/rtk",
	"corrections/ntrip",
	"implement/management",
	"implement/profile",
	"update/zip",
}

// RTK fix-state tags used in GNSS_FIX.payload.rtk_state.
const (
	RTKFixed = "FIXED"
	RTKFloat = "FLOAT"
	RTKHold  = "HOLD"
)

// ErrorMessage builds an ERROR message. code and details are omitted from
// the payload when empty/nil.
func ErrorMessage(reason, code string, details map[string]any) Message {
	payload := map[string]any{"reason": reason}
	if code != "" {
		payload["code"] = code
	}
	if details != nil {
		payload["details"] = details
	}
	return New(TypeError, payload)
}

// HelloAck builds the HELLO_ACK reply.
func HelloAck(version string) Message {
	caps := make([]any, len(Capabilities))
	for i, c := range Capabilities {
		caps[i] = c
	}
	return New(TypeHelloAck, map[string]any{"version": version, "capabilities": caps})
}

// Info builds the INFO reply. implement may be nil.
func Info(version string, uptimeS int64, implement map[string]any) Message {
	payload := map[string]any{"version": version, "uptime_s": uptimeS}
	if implement != nil {
		payload["implement"] = implement
	}
	return New(TypeInfo, payload)
}

// Status builds the STATUS reply.
func Status(jobRunning bool) Message {
	return New(TypeStatus, map[string]any{"job_running": jobRunning})
}

// Ack builds an ACK reply naming the action it acknowledges.
func Ack(action MessageType) Message {
	return New(TypeAck, map[string]any{"action": string(action)})
}

// NtripCorrectionAck builds the NTRIP_CORRECTION_ACK reply.
func NtripCorrectionAck(sequence int, status string, timestamp *float64) Message {
	payload := map[string]any{"sequence": sequence, "status": status}
	if timestamp != nil {
		payload["timestamp"] = *timestamp
	}
	return New(TypeNtripCorrectionAck, payload)
}

// GnssFixParams bundles the fields of a GNSS_FIX payload.
type GnssFixParams struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Accuracy   *float64
	Sequence   int
	Timestamp  float64
	HeadingDeg *float64
	SpeedMps   *float64
	RTKState   string
	Implement  map[string]any
}

// GnssFix builds a GNSS_FIX message from p.
func GnssFix(p GnssFixParams) Message {
	payload := map[string]any{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"altitude":  p.Altitude,
		"sequence":  p.Sequence,
		"timestamp": p.Timestamp,
	}
	if p.Accuracy != nil {
		payload["accuracy"] = *p.Accuracy
	}
	if p.HeadingDeg != nil {
		payload["heading_deg"] = *p.HeadingDeg
	}
	if p.SpeedMps != nil {
		payload["speed_mps"] = *p.SpeedMps
	}
	if p.RTKState != "" {
		payload["rtk_state"] = p.RTKState
	}
	if p.Implement != nil {
		payload["implement"] = p.Implement
	}
	return New(TypeGnssFix, payload)
}
