package ipc

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"inputd/internal/evdev"
	"inputd/internal/security"
)

// Injector is the virtual-device surface a session drives. Implemented
// by uinput.Manager.
type Injector interface {
	Configure(width, height uint32) error
	SendEvent(typ, code uint16, value int32) error
	Close() error
}

// Capturer is the physical-capture surface a session drives.
// Implemented by capture.Manager.
type Capturer interface {
	Start(mouse, keyboard bool, fn func(evdev.Event)) error
	Stop()
}

// Session is the per-connection protocol state machine. It runs a
// blocking command loop on its own goroutine; captured events arrive
// on reader goroutines and share the socket through writeMu, so
// interleaved frames are never torn.
type Session struct {
	conn     net.Conn
	cred     *security.PeerCred
	injector Injector
	capturer Capturer
	audit    security.Auditor
	log      *slog.Logger

	writeMu   sync.Mutex
	startedAt time.Time
}

// NewSession wires a session for an admitted connection. Nothing is
// created on the kernel side until Run performs the handshake.
func NewSession(conn net.Conn, cred *security.PeerCred, injector Injector, capturer Capturer, audit security.Auditor, log *slog.Logger) *Session {
	return &Session{
		conn:     conn,
		cred:     cred,
		injector: injector,
		capturer: capturer,
		audit:    audit,
		log: log.With(
			"uid", cred.UID,
			"pid", cred.PID,
		),
	}
}

// Run drives the session to completion: handshake, default virtual
// device, command loop. It returns when the client disconnects, the
// protocol is violated, or the virtual device cannot be created. All
// session resources are released on every exit path.
func (s *Session) Run() {
	s.startedAt = time.Now()

	defer func() {
		s.capturer.Stop()
		if err := s.injector.Close(); err != nil {
			s.log.Warn("virtual device teardown", "error", err)
		}
		s.conn.Close()
		s.audit.Record(s.cred.UID, s.cred.PID, "disconnect",
			fmt.Sprintf("duration=%s", time.Since(s.startedAt).Round(time.Millisecond)))
		s.log.Info("session closed", "duration", time.Since(s.startedAt))
	}()

	r := bufio.NewReader(s.conn)

	if !s.handshake(r) {
		return
	}

	// Give the session a usable injection target before the client
	// asks for anything: a relative-mode device.
	if err := s.injector.Configure(0, 0); err != nil {
		s.log.Error("default virtual device", "error", err)
		s.writeErrorLocked("virtual device initialization failed: " + err.Error())
		return
	}

	s.commandLoop(r)
}

// handshake enforces the exact-version check. A mismatch gets an
// explicit Error frame before the close so the client can tell the
// user what went wrong; everything else about the session never
// happens.
func (s *Session) handshake(r *bufio.Reader) bool {
	op, err := readOpcode(r)
	if err != nil {
		s.log.Debug("handshake read", "error", err)
		return false
	}
	if op != OpHandshake {
		s.log.Warn("protocol violation: expected handshake", "opcode", op.String())
		return false
	}

	version, err := readInt32(r)
	if err != nil {
		return false
	}
	if version != ProtocolVersion {
		s.log.Warn("protocol version mismatch",
			"client", version, "daemon", ProtocolVersion)
		s.audit.Record(s.cred.UID, s.cred.PID, "handshake_rejected",
			fmt.Sprintf("client_version=%d daemon_version=%d", version, ProtocolVersion))
		s.writeErrorLocked(fmt.Sprintf(
			"protocol version mismatch: client %d, daemon %d", version, ProtocolVersion))
		return false
	}

	s.writeMu.Lock()
	err = writeHandshake(s.conn, ProtocolVersion)
	s.writeMu.Unlock()
	if err != nil {
		return false
	}
	return true
}

// commandLoop serves opcodes in strict receipt order until the stream
// ends. Device-mutating commands never race each other: they all run
// here, on this one goroutine.
func (s *Session) commandLoop(r *bufio.Reader) {
	for {
		op, err := readOpcode(r)
		if err != nil {
			// EOF and I/O errors end the session without ceremony.
			return
		}

		switch op {
		case OpStartCapture:
			mouse, err := readBool(r)
			if err != nil {
				return
			}
			keyboard, err := readBool(r)
			if err != nil {
				return
			}
			s.startCapture(mouse, keyboard)

		case OpStopCapture:
			s.capturer.Stop()
			s.audit.Record(s.cred.UID, s.cred.PID, "capture_stop", "")

		case OpConfigureResolution:
			width, err := readInt32(r)
			if err != nil {
				return
			}
			height, err := readInt32(r)
			if err != nil {
				return
			}
			if width < 0 {
				width = 0
			}
			if height < 0 {
				height = 0
			}
			if err := s.injector.Configure(uint32(width), uint32(height)); err != nil {
				s.log.Error("reconfigure virtual device", "error", err)
				s.writeErrorLocked("virtual device reconfiguration failed: " + err.Error())
				return
			}

		case OpSimulateEvent:
			req, err := readSimulatePayload(r)
			if err != nil {
				return
			}
			if err := s.injector.SendEvent(req.Type, req.Code, req.Value); err != nil {
				s.log.Warn("simulate event", "error", err,
					"type", req.Type, "code", req.Code)
			}

		default:
			// Tolerate minor version skew: unknown opcodes are assumed
			// payload-less and skipped. The handshake version check is
			// the hard compatibility gate; anything that adds payloads
			// must bump the protocol version.
			s.log.Warn("unknown opcode ignored", "opcode", op.String())
		}
	}
}

// startCapture restarts capture with the requested device classes. An
// already-active capture is stopped first so the new set of readers
// starts from a clean slate.
func (s *Session) startCapture(mouse, keyboard bool) {
	s.capturer.Stop()
	if err := s.capturer.Start(mouse, keyboard, s.forwardEvent); err != nil {
		s.log.Error("start capture", "error", err)
		return
	}
	s.audit.Record(s.cred.UID, s.cred.PID, "capture_start",
		fmt.Sprintf("mouse=%t keyboard=%t", mouse, keyboard))
}

// forwardEvent runs on reader goroutines; it classifies the raw event
// and writes one InputEvent frame under the write lock.
func (s *Session) forwardEvent(ev evdev.Event) {
	kind, ok := wireKind(ev.Kind())
	if !ok {
		return
	}

	frame := InputEvent{
		Kind:        kind,
		Code:        int32(ev.Code),
		Value:       ev.Value,
		TimestampMs: ev.TimestampMs(),
	}

	s.writeMu.Lock()
	err := writeInputEvent(s.conn, frame)
	s.writeMu.Unlock()
	if err != nil {
		// The read loop will notice the dead socket and tear down.
		s.log.Debug("event write failed", "error", err)
	}
}

// writeErrorLocked sends an Error frame, taking the write lock.
func (s *Session) writeErrorLocked(msg string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeError(s.conn, msg); err != nil {
		s.log.Debug("error frame write failed", "error", err)
	}
}

// wireKind maps an evdev classification to the wire encoding. Events
// with no wire representation (EV_MSC and friends) are not forwarded.
func wireKind(k evdev.Kind) (byte, bool) {
	switch k {
	case evdev.KindKey:
		return EventKindKey, true
	case evdev.KindMouseButton:
		return EventKindMouseButton, true
	case evdev.KindMouseMove:
		return EventKindMouseMove, true
	case evdev.KindMouseScroll:
		return EventKindMouseScroll, true
	case evdev.KindSync:
		return EventKindSync, true
	default:
		return 0, false
	}
}
