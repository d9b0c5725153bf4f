package ipc

import (
	"bytes"
	"strings"
	"testing"
)

func TestHandshakeFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHandshake(&buf, 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x01}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("frame = %x, want %x", buf.Bytes(), want)
	}
}

func TestStartCaptureFrameLayout(t *testing.T) {
	tests := []struct {
		mouse, keyboard bool
		want            []byte
	}{
		{true, true, []byte{0x03, 0x01, 0x01}},
		{true, false, []byte{0x03, 0x01, 0x00}},
		{false, true, []byte{0x03, 0x00, 0x01}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeStartCapture(&buf, tt.mouse, tt.keyboard); err != nil {
			t.Fatalf("write: %v", err)
		}
		if !bytes.Equal(buf.Bytes(), tt.want) {
			t.Errorf("frame(%t, %t) = %x, want %x", tt.mouse, tt.keyboard, buf.Bytes(), tt.want)
		}
	}
}

func TestConfigureResolutionFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := writeConfigureResolution(&buf, 1920, 1080); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{0x05, 0x00, 0x00, 0x07, 0x80, 0x00, 0x00, 0x04, 0x38}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("frame = %x, want %x", buf.Bytes(), want)
	}
}

func TestSimulateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := SimulateRequest{Type: 1, Code: 30, Value: -1}
	if err := writeSimulateEvent(&buf, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	op, err := readOpcode(&buf)
	if err != nil || op != OpSimulateEvent {
		t.Fatalf("opcode = %v, %v", op, err)
	}
	got, err := readSimulatePayload(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestInputEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := InputEvent{
		Kind:        EventKindMouseMove,
		Code:        0,
		Value:       -42,
		TimestampMs: 1700000000123,
	}
	if err := writeInputEvent(&buf, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 18 {
		t.Errorf("frame length = %d, want 18", buf.Len())
	}

	op, err := readOpcode(&buf)
	if err != nil || op != OpInputEvent {
		t.Fatalf("opcode = %v, %v", op, err)
	}
	got, err := readInputEventPayload(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeError(&buf, "something broke"); err != nil {
		t.Fatalf("write: %v", err)
	}

	op, err := readOpcode(&buf)
	if err != nil || op != OpError {
		t.Fatalf("opcode = %v, %v", op, err)
	}
	msg, err := readErrorPayload(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg != "something broke" {
		t.Errorf("message = %q", msg)
	}
}

func TestErrorMessageTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := writeError(&buf, strings.Repeat("x", 0x10001)); err != nil {
		t.Fatalf("write: %v", err)
	}

	readOpcode(&buf)
	msg, err := readErrorPayload(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msg) != 0xffff {
		t.Errorf("message length = %d, want capped at 65535", len(msg))
	}
}

func TestOpcodeString(t *testing.T) {
	if OpStartCapture.String() != "StartCapture" {
		t.Errorf("String = %q", OpStartCapture.String())
	}
	if got := Opcode(0xab).String(); got != "Opcode(0xab)" {
		t.Errorf("unknown opcode String = %q", got)
	}
}
