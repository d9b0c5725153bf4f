// Package evdev provides low-level access to Linux input devices: the
// input_event wire format, device capability queries, and per-device
// read loops. It talks to /dev/input/event* directly, the same layer
// the kernel exposes to libinput.
package evdev

// Event types from linux/input-event-codes.h.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvRel uint16 = 0x02
	EvAbs uint16 = 0x03
	EvMsc uint16 = 0x04
)

// Synchronization codes.
const (
	SynReport uint16 = 0
)

// Relative axis codes.
const (
	RelX      uint16 = 0x00
	RelY      uint16 = 0x01
	RelHWheel uint16 = 0x06
	RelWheel  uint16 = 0x08
)

// Absolute axis codes.
const (
	AbsX uint16 = 0x00
	AbsY uint16 = 0x01
)

// Key and button codes. Only the ones the daemon needs by name; the
// full keycode range is still forwarded and injected numerically.
const (
	KeyEsc       uint16 = 1
	KeyQ         uint16 = 16
	KeyA         uint16 = 30
	KeyZ         uint16 = 44
	KeyM         uint16 = 50
	KeySpace     uint16 = 57
	BtnMisc      uint16 = 0x100
	BtnLeft      uint16 = 0x110
	BtnRight     uint16 = 0x111
	BtnMiddle    uint16 = 0x112
	BtnSide      uint16 = 0x113
	BtnExtra     uint16 = 0x114
	BtnJoystick  uint16 = 0x130
	BtnToolPen   uint16 = 0x140
	BtnTouch     uint16 = 0x14a
	KeyMax       uint16 = 0x2ff
)

// Device properties from linux/input-event-codes.h.
const (
	PropPointer uint32 = 0x00
	PropDirect  uint32 = 0x01
	PropMax     uint32 = 0x1f
)

// keyNames maps a handful of common key codes to readable names for
// audit details and debug logs. Built once at init, never mutated.
var keyNames = map[uint16]string{
	KeyEsc:    "esc",
	KeyA:      "a",
	KeySpace:  "space",
	BtnLeft:   "btn_left",
	BtnRight:  "btn_right",
	BtnMiddle: "btn_middle",
	14:        "backspace",
	15:        "tab",
	28:        "enter",
	29:        "leftctrl",
	42:        "leftshift",
	56:        "leftalt",
	103:       "up",
	105:       "left",
	106:       "right",
	108:       "down",
}

// CodeName returns a readable name for a key or button code, or "" if
// the code has no well-known name.
func CodeName(code uint16) string {
	return keyNames[code]
}

// Kind is the coarse semantic class of an event as seen on the wire.
type Kind uint8

const (
	KindSync Kind = iota
	KindKey
	KindMouseButton
	KindMouseMove
	KindMouseScroll
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindKey:
		return "key"
	case KindMouseButton:
		return "mouse_button"
	case KindMouseMove:
		return "mouse_move"
	case KindMouseScroll:
		return "mouse_scroll"
	default:
		return "other"
	}
}

// KindOf classifies a raw (type, code) pair. Button codes live inside
// the EV_KEY range, so the split between key and mouse button is done
// on the code.
func KindOf(typ, code uint16) Kind {
	switch typ {
	case EvSyn:
		return KindSync
	case EvKey:
		if code >= BtnMisc && code < BtnJoystick {
			return KindMouseButton
		}
		return KindKey
	case EvRel:
		if code == RelWheel || code == RelHWheel {
			return KindMouseScroll
		}
		return KindMouseMove
	case EvAbs:
		return KindMouseMove
	default:
		return KindOther
	}
}
