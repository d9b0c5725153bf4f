package evdev

import (
	"encoding/binary"
	"time"
)

// EventSize is the size of a struct input_event on 64-bit Linux:
// two 8-byte time fields followed by type, code and value.
const EventSize = 24

// Event mirrors the kernel's struct input_event.
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// TimestampMs returns the event time in milliseconds since the epoch.
// Falls back to the current time when the kernel left the time zeroed
// (some virtual drivers do).
func (e Event) TimestampMs() int64 {
	if e.Sec == 0 && e.Usec == 0 {
		return time.Now().UnixMilli()
	}
	return e.Sec*1000 + e.Usec/1000
}

// Kind returns the coarse semantic class of the event.
func (e Event) Kind() Kind {
	return KindOf(e.Type, e.Code)
}

// UnmarshalEvent decodes one input_event from buf, which must hold at
// least EventSize bytes. Device reads are host-endian; evdev is only
// compiled for Linux targets where that is little-endian.
func UnmarshalEvent(buf []byte) Event {
	return Event{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// MarshalEvent encodes an input_event for writing to a device node.
func MarshalEvent(e Event) []byte {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], e.Type)
	binary.LittleEndian.PutUint16(buf[18:20], e.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(e.Value))
	return buf
}
