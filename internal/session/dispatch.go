package session

import (
	"encoding/base64"
	"fmt"

	"github.com/fieldgate/agent/internal/protocol"
)

// HandleMessage processes one inbound message and returns the outbound
// replies (zero or more). It never panics on peer input: decode and
// validation failures become ERROR replies.
func (s *Session) HandleMessage(msg protocol.Message) []protocol.Message {
	if !s.handshakeComplete && msg.Type != protocol.TypeHello {
		s.logger.WithField("type", msg.Type).Warn("received message before HELLO handshake")
		return []protocol.Message{
			protocol.ErrorMessageFor("handshake required", protocol.ErrHandshakeRequired, nil),
		}
	}

	switch msg.Type {
	case protocol.TypeHello:
		return s.onHello(msg)
	case protocol.TypePing:
		return []protocol.Message{protocol.New(protocol.TypePong, nil)}
	case protocol.TypeInfo:
		return s.onInfoRequest()
	case protocol.TypeGetStatus:
		return s.onStatusRequest()
	case protocol.TypeStartJob:
		return s.onStartJob(msg)
	case protocol.TypeStopJob:
		return s.onStopJob(msg)
	case protocol.TypeUpdate:
		return s.onUpdate(msg)
	case protocol.TypeReboot:
		return s.onReboot()
	case protocol.TypeGnssAck:
		return s.onGnssAck(msg)
	case protocol.TypeNtripCorrection:
		return s.onNtripCorrection(msg)
	default:
		s.logger.WithField("type", msg.Type).Info("no handler for message type")
		return []protocol.Message{
			protocol.ErrorMessageFor(fmt.Sprintf("unsupported message: %s", msg.Type), protocol.ErrUnsupported, nil),
		}
	}
}

func (s *Session) onHello(msg protocol.Message) []protocol.Message {
	s.handshakeComplete = true
	s.telemetrySubscribed = extractSubscription(msg.Payload)
	s.logger.WithField("telemetry_subscribed", s.telemetrySubscribed).Info("handshake completed")

	if s.publisher != nil && !s.registeredWithPublisher {
		s.publisher.RegisterSession(s)
		s.registeredWithPublisher = true
	}
	if s.coordinator != nil {
		s.coordinator.RegisterSession(s)
	}
	return []protocol.Message{protocol.HelloAck(Version)}
}

// extractSubscription determines if the monitor requested telemetry
// streaming: absent => subscribed; bool => as given; list =>
// subscribed iff it names telemetry/rtk or telemetry; map => honour
// telemetry/rtk, else nested telemetry.rtk, else subscribed.
func extractSubscription(payload map[string]any) bool {
	if payload == nil {
		return true
	}
	subscribe, ok := payload["subscribe"]
	if !ok {
		subscribe, ok = payload["subscriptions"]
	}
	if !ok || subscribe == nil {
		return true
	}
	switch v := subscribe.(type) {
	case bool:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && (s == "telemetry/rtk" || s == "telemetry") {
				return true
			}
		}
		return false
	case map[string]any:
		if rtk, ok := v["telemetry/rtk"]; ok {
			return truthy(rtk)
		}
		if telemetry, ok := v["telemetry"].(map[string]any); ok {
			if rtk, ok := telemetry["rtk"]; ok {
				return truthy(rtk)
			}
		}
		return true
	default:
		return true
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return !ok || b
}

func (s *Session) onInfoRequest() []protocol.Message {
	snapshot := s.state.Snapshot()
	var implementPayload map[string]any
	if s.implementProfile != nil {
		implementPayload = s.implementProfile.ToPayload()
	}
	return []protocol.Message{protocol.Info(Version, snapshot.UptimeS, implementPayload)}
}

func (s *Session) onStatusRequest() []protocol.Message {
	snapshot := s.state.Snapshot()
	return []protocol.Message{protocol.Status(snapshot.JobRunning)}
}

func (s *Session) onStartJob(msg protocol.Message) []protocol.Message {
	s.state.SetJobRunning(true)
	s.state.MarkCommand(envelope(msg))
	return []protocol.Message{protocol.Ack(protocol.TypeStartJob)}
}

func (s *Session) onStopJob(msg protocol.Message) []protocol.Message {
	s.state.SetJobRunning(false)
	s.state.MarkCommand(envelope(msg))
	return []protocol.Message{protocol.Ack(protocol.TypeStopJob)}
}

func envelope(msg protocol.Message) map[string]any {
	return map[string]any{"type": string(msg.Type), "payload": msg.Payload}
}

func (s *Session) onGnssAck(msg protocol.Message) []protocol.Message {
	sequenceRaw, hasSeq := msg.Payload["sequence"]
	if !hasSeq {
		s.logger.Warn("received GNSS_ACK without sequence")
		return nil
	}
	sequence, err := toInt(sequenceRaw)
	if err != nil {
		s.logger.WithField("sequence", sequenceRaw).Warn("invalid GNSS_ACK sequence")
		return nil
	}
	status, _ := msg.Payload["status"].(string)
	var timestamp *float64
	if ts, ok := toFloat(msg.Payload["timestamp"]); ok {
		timestamp = &ts
	}

	s.ackMu.Lock()
	s.lastAckSequence = &sequence
	s.lastAckStatus = status
	s.lastAckTimestamp = timestamp
	now := s.clock()
	s.lastHeartbeatAt = &now
	if s.pendingFixSequence != nil && *s.pendingFixSequence == sequence {
		s.pendingFixSequence = nil
	}
	s.ackMu.Unlock()

	if s.coordinator != nil {
		s.coordinator.AcknowledgeFix(sequence, status, timestamp)
	}
	return nil
}

func (s *Session) onNtripCorrection(msg protocol.Message) []protocol.Message {
	sequenceRaw, hasSeq := msg.Payload["sequence"]
	encoded, hasPayload := msg.Payload["payload"].(string)
	format, hasFormat := msg.Payload["format"].(string)
	if !hasSeq || !hasPayload || !hasFormat {
		return []protocol.Message{
			protocol.ErrorMessageFor("missing sequence/format/payload", protocol.ErrInvalidPayload, nil),
		}
	}
	sequence, err := toInt(sequenceRaw)
	if err != nil {
		return []protocol.Message{
			protocol.ErrorMessageFor("invalid sequence", protocol.ErrInvalidPayload, nil),
		}
	}
	correctionBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return []protocol.Message{
			protocol.ErrorMessageFor("invalid correction payload", protocol.ErrInvalidPayload, nil),
		}
	}
	var timestamp *float64
	if ts, ok := toFloat(msg.Payload["timestamp"]); ok {
		timestamp = &ts
	}
	if s.coordinator != nil {
		s.coordinator.HandleCorrection(sequence, correctionBytes, format, timestamp)
	}
	return []protocol.Message{protocol.NtripCorrectionAck(sequence, "accepted", timestamp)}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("sequence %v is not an integer", v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("sequence %v is not a number", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
