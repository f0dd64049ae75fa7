// Package sessionref defines the narrow view of a gateway session that
// the telemetry publisher needs. Keeping it in its own package lets
// internal/session and internal/planter depend on the same shape without
// importing each other; internal/gnsscoord declares its own SessionRef.
package sessionref

import "github.com/fieldgate/agent/internal/protocol"

// Ref is a stable handle to one session: an identity suitable for keying a
// worker map, plus the two operations a producer needs to push telemetry.
type Ref interface {
	// ID is a stable identifier for the session's lifetime, suitable as a
	// worker map key.
	ID() string
	// CanStream reports whether the session is ready to receive telemetry:
	// handshake complete, subscribed, and a sender attached.
	CanStream() bool
	// SendMessage pushes msg to the monitor if the transport is ready.
	// Returns false (no-op) when the session cannot currently send.
	SendMessage(msg protocol.Message) bool
	// AwaitingAck reports whether the most recently sent GNSS fix has not
	// yet been acknowledged — the producer-side back-pressure signal.
	AwaitingAck() bool
}
