package session

import (
	"encoding/base64"

	"github.com/fieldgate/agent/internal/protocol"
)

// Updater performs the actual update-package unpacking and reboot/restart
// side effects. Those are explicitly out of scope for the gateway core
// — this interface is the seam a deployment wires a real
// implementation into; a Session with a nil Updater still validates
// payloads and acknowledges, it just has nothing to apply them with.
type Updater interface {
	// ApplyUpdate decodes and unpacks an update package named name from its
	// raw (already base64-decoded) bytes. ErrInvalidPackage should be
	// returned (or wrapped) when the archive itself is malformed.
	ApplyUpdate(name string, data []byte) error
	// Reboot triggers the device reboot escape hatch.
	Reboot() error
}

// SetUpdater wires the out-of-scope update/reboot side-effect collaborator.
func (s *Session) SetUpdater(u Updater) {
	s.updater = u
}

func (s *Session) onUpdate(msg protocol.Message) []protocol.Message {
	name, _ := msg.Payload["name"].(string)
	contentB64, _ := msg.Payload["content_b64"].(string)
	if name == "" || contentB64 == "" {
		return []protocol.Message{
			protocol.ErrorMessageFor("missing name/content", protocol.ErrInvalidPayload, nil),
		}
	}
	data, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		return []protocol.Message{
			protocol.ErrorMessageFor("invalid base64", protocol.ErrInvalidPayload, nil),
		}
	}
	if s.updater != nil {
		if err := s.updater.ApplyUpdate(name, data); err != nil {
			s.logger.WithError(err).WithField("name", name).Error("failed to apply update package")
			return []protocol.Message{
				protocol.ErrorMessageFor("invalid package", protocol.ErrInvalidPackage, nil),
			}
		}
	} else {
		s.logger.WithField("name", name).Warn("update received but no updater configured; ignoring")
	}
	return []protocol.Message{protocol.Ack(protocol.TypeUpdate)}
}

func (s *Session) onReboot() []protocol.Message {
	if s.updater != nil {
		if err := s.updater.Reboot(); err != nil {
			s.logger.WithError(err).Error("failed to trigger reboot")
		}
	} else {
		s.logger.Warn("reboot requested but no updater configured; ignoring")
	}
	return []protocol.Message{protocol.Ack(protocol.TypeReboot)}
}
