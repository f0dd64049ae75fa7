// Package protocol defines the wire message envelope exchanged between the
// gateway and a monitor: one JSON document per line. Framing and transport
// are external collaborators (see internal/transport); this package only
// models the message shape and the closed set of message types.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType is the closed set of message type tags carried in the
// envelope's "type" field.
type MessageType string

const (
	TypeHello               MessageType = "HELLO"
	TypeHelloAck            MessageType = "HELLO_ACK"
	TypeAck                 MessageType = "ACK"
	TypeError               MessageType = "ERROR"
	TypePing                MessageType = "PING"
	TypePong                MessageType = "PONG"
	TypeInfo                MessageType = "INFO"
	TypeGetStatus           MessageType = "GET_STATUS"
	TypeStatus              MessageType = "STATUS"
	TypeStartJob            MessageType = "START_JOB"
	TypeStopJob             MessageType = "STOP_JOB"
	TypeUpdate              MessageType = "UPDATE"
	TypeReboot              MessageType = "REBOOT"
	TypeGnssFix             MessageType = "GNSS_FIX"
	TypeGnssAck             MessageType = "GNSS_ACK"
	TypeNtripCorrection     MessageType = "NTRIP_CORRECTION"
	TypeNtripCorrectionAck  MessageType = "NTRIP_CORRECTION_ACK"
)

// Message is the envelope: {"type": "...", "payload": {...}}. payload
// defaults to an empty object when absent.
type Message struct {
	Type    MessageType    `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// New builds a Message with the given type and payload, initialising the
// payload map when nil so callers can always index into it.
func New(t MessageType, payload map[string]any) Message {
	if payload == nil {
		payload = map[string]any{}
	}
	return Message{Type: t, Payload: payload}
}

// DecodeLine parses one line of the wire protocol into a Message. The
// caller is responsible for stripping the trailing newline. Returns an
// error (never panics) on malformed JSON or a non-object payload.
func DecodeLine(line []byte) (Message, error) {
	var raw struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Message{}, fmt.Errorf("bad_json: %w", err)
	}
	if raw.Type == "" {
		return Message{}, fmt.Errorf("bad_json: missing type")
	}
	payload := map[string]any{}
	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, &payload); err != nil {
			return Message{}, fmt.Errorf("bad_json: payload must be an object: %w", err)
		}
	}
	return Message{Type: raw.Type, Payload: payload}, nil
}

// EncodeLine renders m as a single JSON line, newline-terminated, suitable
// for writing directly to a line-oriented stream.
func EncodeLine(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return append(data, '\n'), nil
}
