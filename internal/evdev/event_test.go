package evdev

import (
	"encoding/binary"
	"testing"
)

func TestMarshalEventLayout(t *testing.T) {
	ev := Event{
		Sec:   1700000000,
		Usec:  123456,
		Type:  EvKey,
		Code:  KeyA,
		Value: 1,
	}

	buf := MarshalEvent(ev)
	if len(buf) != EventSize {
		t.Fatalf("len = %d, want %d", len(buf), EventSize)
	}

	if got := int64(binary.LittleEndian.Uint64(buf[0:8])); got != ev.Sec {
		t.Errorf("sec = %d", got)
	}
	if got := int64(binary.LittleEndian.Uint64(buf[8:16])); got != ev.Usec {
		t.Errorf("usec = %d", got)
	}
	if got := binary.LittleEndian.Uint16(buf[16:18]); got != EvKey {
		t.Errorf("type = %d", got)
	}
	if got := binary.LittleEndian.Uint16(buf[18:20]); got != KeyA {
		t.Errorf("code = %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[20:24])); got != 1 {
		t.Errorf("value = %d", got)
	}
}

func TestUnmarshalEventRoundTrip(t *testing.T) {
	tests := []Event{
		{Sec: 0, Usec: 0, Type: EvSyn, Code: SynReport, Value: 0},
		{Sec: 1700000000, Usec: 999999, Type: EvKey, Code: BtnLeft, Value: 1},
		{Sec: 1, Usec: 2, Type: EvRel, Code: RelX, Value: -17},
	}

	for _, want := range tests {
		got := UnmarshalEvent(MarshalEvent(want))
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestTimestampMs(t *testing.T) {
	ev := Event{Sec: 1700000000, Usec: 500000}
	if got := ev.TimestampMs(); got != 1700000000500 {
		t.Errorf("TimestampMs = %d, want 1700000000500", got)
	}
}

func TestTimestampMsZeroFallsBackToNow(t *testing.T) {
	ev := Event{}
	if ev.TimestampMs() == 0 {
		t.Error("zero-time event produced zero timestamp")
	}
}

func TestEventKind(t *testing.T) {
	ev := Event{Type: EvKey, Code: BtnLeft, Value: 1}
	if ev.Kind() != KindMouseButton {
		t.Errorf("Kind = %s, want mouse_button", ev.Kind())
	}
}
