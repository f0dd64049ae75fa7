// Package transport provides the thin TCP accept loop and line framing
// around the wire protocol; the gateway-session logic lives
// entirely in internal/session, which this package only feeds decoded
// messages into and drains replies from.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fieldgate/agent/internal/protocol"
	"github.com/fieldgate/agent/internal/session"
)

// Conversation is the narrow view of a session a Listener needs: feed it
// decoded inbound messages, hand it an outbound sender, and close it when
// the socket goes away. *session.Session satisfies this.
type Conversation interface {
	ID() string
	HandleMessage(msg protocol.Message) []protocol.Message
	AttachSender(sender session.Sender)
	Close()
}

// SessionFactory creates one Conversation per accepted connection.
type SessionFactory func() Conversation

// maxLineBytes bounds a single protocol line; generous headroom over a
// GNSS_FIX or a base64-encoded UPDATE payload.
const maxLineBytes = 1 << 20

// Listener accepts TCP connections and runs the line-oriented JSON
// protocol over each one: one goroutine per connection reads and
// dispatches inbound messages, while outbound sends (replies and
// simulator-pushed telemetry alike) are serialised by a per-connection
// write lock, since both the reader goroutine and a planter worker call
// the same sender.
type Listener struct {
	ln      net.Listener
	factory SessionFactory
	logger  logrus.FieldLogger

	wg sync.WaitGroup
}

// Listen opens a TCP listener on addr.
func Listen(addr string, factory SessionFactory, logger logrus.FieldLogger) (*Listener, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Listener{ln: ln, factory: factory, logger: logger.WithField("component", "tcp_listener")}, nil
}

// Addr returns the listener's bound address (useful when addr requested
// an ephemeral port).
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed by another goroutine. It blocks; callers run it in its own
// goroutine.
func (l *Listener) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			l.logger.WithError(err).Warn("accept failed")
			return
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handleConn(conn)
		}()
	}
}

// Close closes the underlying listener so Serve stops accepting. It does
// not close connections already accepted; they keep running until their
// peer disconnects.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Wait blocks until every connection goroutine started by Serve has
// returned.
func (l *Listener) Wait() { l.wg.Wait() }

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()
	logger := l.logger.WithField("remote_addr", conn.RemoteAddr().String())

	conv := l.factory()
	defer conv.Close()

	var writeMu sync.Mutex
	sender := session.Sender(func(msg protocol.Message) error {
		line, err := protocol.EncodeLine(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_, err = conn.Write(line)
		return err
	})
	conv.AttachSender(sender)
	logger = logger.WithField("session_id", conv.ID())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := protocol.DecodeLine(line)
		if err != nil {
			logger.WithError(err).Debug("dropping malformed line")
			details := map[string]any{"error": err.Error()}
			if sendErr := sender(protocol.ErrorMessageFor("bad_json", protocol.ErrBadJSON, details)); sendErr != nil {
				logger.WithError(sendErr).Warn("failed to send bad_json error")
				return
			}
			continue
		}
		for _, reply := range conv.HandleMessage(msg) {
			if err := sender(reply); err != nil {
				logger.WithError(err).Warn("failed to send reply")
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logger.WithError(err).Info("connection closed with error")
	}
}
