package gnsscoord

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialCoordinator relays accepted RTK corrections to GNSS hardware over a
// serial port (e.g. a receiver's correction-input UART). Fix acknowledgements
// are only logged and registered sessions are only kept in a map; nothing
// about either is sent to the hardware.
type SerialCoordinator struct {
	mu     sync.Mutex
	port   serial.Port
	logger logrus.FieldLogger

	sessions map[string]SessionRef
}

// NewSerialCoordinator opens portName at baudRate 8N1 and returns a
// Coordinator that writes accepted correction payloads to it.
func NewSerialCoordinator(portName string, baudRate int, logger logrus.FieldLogger) (*SerialCoordinator, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open GNSS serial port %s: %w", portName, err)
	}
	return &SerialCoordinator{
		port:     port,
		logger:   logger.WithField("component", "gnss_serial"),
		sessions: make(map[string]SessionRef),
	}, nil
}

// Close releases the underlying serial port.
func (c *SerialCoordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

func (c *SerialCoordinator) RegisterSession(session SessionRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID()] = session
}

func (c *SerialCoordinator) UnregisterSession(session SessionRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, session.ID())
}

func (c *SerialCoordinator) HandleCorrection(sequence int, payload []byte, format string, timestamp *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.port.Write(payload)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"sequence": sequence,
			"format":   format,
		}).Error("failed to write correction to GNSS serial port")
		return
	}
	c.logger.WithFields(logrus.Fields{
		"sequence": sequence,
		"format":   format,
		"bytes":    n,
	}).Debug("forwarded correction to GNSS hardware")
}

func (c *SerialCoordinator) AcknowledgeFix(sequence int, status string, timestamp *float64) {
	c.logger.WithFields(logrus.Fields{
		"sequence": sequence,
		"status":   status,
	}).Debug("monitor acknowledged fix")
}
