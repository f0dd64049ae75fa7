// Package session implements the per-connection logical conversation with
// a monitor: handshake, typed-message dispatch, subscription extraction,
// outbound sender handle, pending-fix tracking, ack correlation, and NTRIP
// correction relay.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fieldgate/agent/internal/agentstate"
	"github.com/fieldgate/agent/internal/gnsscoord"
	"github.com/fieldgate/agent/internal/implement"
	"github.com/fieldgate/agent/internal/protocol"
	"github.com/fieldgate/agent/internal/sessionref"
)

// Publisher is the telemetry publisher a session registers with once the
// handshake completes (internal/planter.Simulator satisfies this).
type Publisher interface {
	RegisterSession(s sessionref.Ref)
	UnregisterSession(s sessionref.Ref)
}

// Sender pushes one encoded message toward the monitor. Implementations
// must serialise concurrent calls (the inbound handler and a simulator
// worker both call it) — typically a per-connection write lock.
type Sender func(protocol.Message) error

// Version is reported in HELLO_ACK/INFO. It is a build-time constant here;
// a real deployment would stamp it via -ldflags.
const Version = "0.1.0"

// Capabilities is the closed set advertised in HELLO_ACK.
var Capabilities = protocol.Capabilities

// Session encapsulates one logical conversation with a monitor.
type Session struct {
	id     string
	logger logrus.FieldLogger
	clock  func() float64

	state             *agentstate.State
	implementProfile  *implement.Profile
	publisher         Publisher
	coordinator       gnsscoord.Coordinator

	handshakeComplete bool
	telemetrySubscribed bool
	registeredWithPublisher bool

	sender  Sender
	updater Updater

	// ackMu guards the back-pressure fields below: they are written by the
	// session's own reader goroutine (inbound GNSS_ACK) and by the planter
	// worker goroutine (MarkFixSent), so awaiting_ack and
	// pending_fix_sequence must be observed as a consistent pair.
	ackMu              sync.Mutex
	pendingFixSequence *int
	lastAckSequence    *int
	lastAckStatus      string
	lastAckTimestamp   *float64
	lastHeartbeatAt    *float64
}

// Options configures a new Session.
type Options struct {
	State            *agentstate.State
	ImplementProfile *implement.Profile
	Publisher        Publisher
	Coordinator      gnsscoord.Coordinator
	// Clock returns monotonic-ish seconds; defaults to a wall-clock source.
	// Exposed so tests can inject a deterministic clock.
	Clock  func() float64
	Logger logrus.FieldLogger
}

// New creates a Session in the PreHandshake state.
func New(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	id := uuid.NewString()
	return &Session{
		id:               id,
		logger:           logger.WithField("session_id", id),
		clock:            clock,
		state:            opts.State,
		implementProfile: opts.ImplementProfile,
		publisher:        opts.Publisher,
		coordinator:      opts.Coordinator,
	}
}

// ID implements sessionref.Ref.
func (s *Session) ID() string { return s.id }

// AttachSender allows the session to push messages asynchronously to the
// monitor; the connection layer supplies this once it has a live socket.
func (s *Session) AttachSender(sender Sender) {
	s.sender = sender
}

// DetachSender removes the sender; subsequent sends become no-ops.
func (s *Session) DetachSender() {
	s.sender = nil
}

// Close unregisters the session from the publisher and coordinator and
// detaches its sender. Safe to call once per session lifecycle.
func (s *Session) Close() {
	if s.publisher != nil && s.registeredWithPublisher {
		s.publisher.UnregisterSession(s)
		s.registeredWithPublisher = false
	}
	s.sender = nil
	if s.coordinator != nil {
		s.coordinator.UnregisterSession(s)
	}
}

// HandshakeComplete reports whether HELLO has been processed.
func (s *Session) HandshakeComplete() bool { return s.handshakeComplete }

// TelemetrySubscribed reports the subscription decision extracted from HELLO.
func (s *Session) TelemetrySubscribed() bool { return s.telemetrySubscribed }

// AwaitingAck reports whether a GNSS_FIX has been sent without a matching
// GNSS_ACK yet — the planter worker's back-pressure signal.
func (s *Session) AwaitingAck() bool {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.pendingFixSequence != nil
}

// LastAckSequence, LastAckStatus, LastAckTimestamp, LastHeartbeatAt expose
// the back-pressure bookkeeping fields for tests and diagnostics.
func (s *Session) LastAckSequence() *int {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.lastAckSequence
}

func (s *Session) LastAckStatus() string {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.lastAckStatus
}

func (s *Session) LastAckTimestamp() *float64 {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.lastAckTimestamp
}

func (s *Session) LastHeartbeatAt() *float64 {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.lastHeartbeatAt
}

// CanStream implements sessionref.Ref: ready iff handshake is complete,
// telemetry is subscribed, and a sender is attached.
func (s *Session) CanStream() bool {
	return s.handshakeComplete && s.telemetrySubscribed && s.sender != nil
}

// MarkFixSent records that a GNSS fix with the given sequence was handed to
// the sender, setting the back-pressure pending marker.
func (s *Session) MarkFixSent(sequence int) {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	seq := sequence
	s.pendingFixSequence = &seq
	now := s.clock()
	s.lastHeartbeatAt = &now
}

// SendMessage implements sessionref.Ref: pushes msg to the monitor if the
// transport is ready. On a successful GNSS_FIX send it also
// records MarkFixSent.
func (s *Session) SendMessage(msg protocol.Message) bool {
	if !s.handshakeComplete {
		s.logger.WithField("type", msg.Type).Debug("ignoring outbound message before handshake")
		return false
	}
	if !s.telemetrySubscribed {
		s.logger.WithField("type", msg.Type).Debug("ignoring outbound message: not subscribed")
		return false
	}
	if s.sender == nil {
		s.logger.WithField("type", msg.Type).Debug("no sender attached; dropping outbound message")
		return false
	}
	if err := s.sender(msg); err != nil {
		s.logger.WithError(err).WithField("type", msg.Type).Error("failed to send message to monitor")
		return false
	}
	if msg.Type == protocol.TypeGnssFix {
		if seq, ok := msg.Payload["sequence"].(int); ok {
			s.MarkFixSent(seq)
		}
	}
	return true
}
