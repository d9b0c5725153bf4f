// Package ipc implements the daemon's wire protocol and the
// per-connection session handler.
//
// The protocol is a length-implicit, opcode-tagged binary stream over
// a Unix domain socket. Every message starts with a one-byte opcode;
// the payload size is fixed per opcode (Error carries an explicit
// string length). All integers are big-endian on both sides.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion is exchanged during the handshake. There is no
// negotiation: a client with any other version is refused.
const ProtocolVersion int32 = 1

// Opcode identifies a message.
type Opcode uint8

const (
	// OpHandshake carries an int32 protocol version, both directions.
	OpHandshake Opcode = 0x01
	// OpError carries a UTF-8 message, server to client.
	OpError Opcode = 0x02
	// OpStartCapture carries two bools: capture mouse, capture
	// keyboard.
	OpStartCapture Opcode = 0x03
	// OpStopCapture has no payload.
	OpStopCapture Opcode = 0x04
	// OpConfigureResolution carries int32 width and height.
	OpConfigureResolution Opcode = 0x05
	// OpSimulateEvent carries uint16 type, uint16 code, int32 value.
	OpSimulateEvent Opcode = 0x06
	// OpInputEvent carries a captured event, server to client: byte
	// semantic kind, int32 code, int32 value, int64 timestamp in
	// milliseconds.
	OpInputEvent Opcode = 0x07
)

func (op Opcode) String() string {
	switch op {
	case OpHandshake:
		return "Handshake"
	case OpError:
		return "Error"
	case OpStartCapture:
		return "StartCapture"
	case OpStopCapture:
		return "StopCapture"
	case OpConfigureResolution:
		return "ConfigureResolution"
	case OpSimulateEvent:
		return "SimulateEvent"
	case OpInputEvent:
		return "InputEvent"
	default:
		return fmt.Sprintf("Opcode(0x%02x)", uint8(op))
	}
}

// Semantic event kinds carried in InputEvent frames.
const (
	EventKindKey         byte = 0
	EventKindMouseButton byte = 1
	EventKindMouseMove   byte = 2
	EventKindMouseScroll byte = 3
	EventKindSync        byte = 4
)

// InputEvent is a captured physical event as sent to the client.
type InputEvent struct {
	Kind        byte
	Code        int32
	Value       int32
	TimestampMs int64
}

// SimulateRequest is a client request to inject one raw event.
type SimulateRequest struct {
	Type  uint16
	Code  uint16
	Value int32
}

// readOpcode reads the next opcode byte.
func readOpcode(r io.Reader) (Opcode, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return Opcode(b[0]), nil
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// writeHandshake writes a Handshake frame.
func writeHandshake(w io.Writer, version int32) error {
	buf := make([]byte, 5)
	buf[0] = byte(OpHandshake)
	binary.BigEndian.PutUint32(buf[1:5], uint32(version))
	_, err := w.Write(buf)
	return err
}

// writeError writes an Error frame with a UTF-8 message.
func writeError(w io.Writer, msg string) error {
	raw := []byte(msg)
	if len(raw) > 0xffff {
		raw = raw[:0xffff]
	}
	buf := make([]byte, 3+len(raw))
	buf[0] = byte(OpError)
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(raw)))
	copy(buf[3:], raw)
	_, err := w.Write(buf)
	return err
}

// readErrorPayload reads the string payload of an Error frame.
func readErrorPayload(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// writeStartCapture writes a StartCapture frame.
func writeStartCapture(w io.Writer, mouse, keyboard bool) error {
	buf := []byte{byte(OpStartCapture), 0, 0}
	if mouse {
		buf[1] = 1
	}
	if keyboard {
		buf[2] = 1
	}
	_, err := w.Write(buf)
	return err
}

// writeStopCapture writes a StopCapture frame.
func writeStopCapture(w io.Writer) error {
	_, err := w.Write([]byte{byte(OpStopCapture)})
	return err
}

// writeConfigureResolution writes a ConfigureResolution frame.
func writeConfigureResolution(w io.Writer, width, height int32) error {
	buf := make([]byte, 9)
	buf[0] = byte(OpConfigureResolution)
	binary.BigEndian.PutUint32(buf[1:5], uint32(width))
	binary.BigEndian.PutUint32(buf[5:9], uint32(height))
	_, err := w.Write(buf)
	return err
}

// writeSimulateEvent writes a SimulateEvent frame.
func writeSimulateEvent(w io.Writer, req SimulateRequest) error {
	buf := make([]byte, 9)
	buf[0] = byte(OpSimulateEvent)
	binary.BigEndian.PutUint16(buf[1:3], req.Type)
	binary.BigEndian.PutUint16(buf[3:5], req.Code)
	binary.BigEndian.PutUint32(buf[5:9], uint32(req.Value))
	_, err := w.Write(buf)
	return err
}

// readSimulatePayload reads the payload of a SimulateEvent frame.
func readSimulatePayload(r io.Reader) (SimulateRequest, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SimulateRequest{}, err
	}
	return SimulateRequest{
		Type:  binary.BigEndian.Uint16(buf[0:2]),
		Code:  binary.BigEndian.Uint16(buf[2:4]),
		Value: int32(binary.BigEndian.Uint32(buf[4:8])),
	}, nil
}

// writeInputEvent writes an InputEvent frame.
func writeInputEvent(w io.Writer, ev InputEvent) error {
	buf := make([]byte, 18)
	buf[0] = byte(OpInputEvent)
	buf[1] = ev.Kind
	binary.BigEndian.PutUint32(buf[2:6], uint32(ev.Code))
	binary.BigEndian.PutUint32(buf[6:10], uint32(ev.Value))
	binary.BigEndian.PutUint64(buf[10:18], uint64(ev.TimestampMs))
	_, err := w.Write(buf)
	return err
}

// readInputEventPayload reads the payload of an InputEvent frame.
func readInputEventPayload(r io.Reader) (InputEvent, error) {
	var buf [17]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return InputEvent{}, err
	}
	return InputEvent{
		Kind:        buf[0],
		Code:        int32(binary.BigEndian.Uint32(buf[1:5])),
		Value:       int32(binary.BigEndian.Uint32(buf[5:9])),
		TimestampMs: int64(binary.BigEndian.Uint64(buf[9:17])),
	}, nil
}
