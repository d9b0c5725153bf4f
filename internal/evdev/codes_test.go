package evdev

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		typ  uint16
		code uint16
		want Kind
	}{
		{"sync report", EvSyn, SynReport, KindSync},
		{"letter key", EvKey, KeyA, KindKey},
		{"escape", EvKey, KeyEsc, KindKey},
		{"left button", EvKey, BtnLeft, KindMouseButton},
		{"side button", EvKey, BtnSide, KindMouseButton},
		{"first button code", EvKey, BtnMisc, KindMouseButton},
		{"joystick is not a mouse button", EvKey, BtnJoystick, KindKey},
		{"pointer delta", EvRel, RelX, KindMouseMove},
		{"vertical wheel", EvRel, RelWheel, KindMouseScroll},
		{"horizontal wheel", EvRel, RelHWheel, KindMouseScroll},
		{"absolute position", EvAbs, AbsX, KindMouseMove},
		{"misc", EvMsc, 4, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.typ, tt.code); got != tt.want {
				t.Errorf("KindOf(%d, %d) = %s, want %s", tt.typ, tt.code, got, tt.want)
			}
		})
	}
}

// Property codes must match linux/input-event-codes.h exactly; a wrong
// value registers the virtual device under a different property (0x05,
// for instance, is INPUT_PROP_POINTING_STICK) and compositors then
// apply pointer acceleration instead of direct 1:1 mapping.
func TestDevicePropertyCodes(t *testing.T) {
	if PropPointer != 0x00 {
		t.Errorf("PropPointer = %#x, want 0x00", PropPointer)
	}
	if PropDirect != 0x01 {
		t.Errorf("PropDirect = %#x, want 0x01 (INPUT_PROP_DIRECT)", PropDirect)
	}
	if PropMax != 0x1f {
		t.Errorf("PropMax = %#x, want 0x1f", PropMax)
	}
}

func TestCodeName(t *testing.T) {
	if got := CodeName(BtnLeft); got != "btn_left" {
		t.Errorf("CodeName(BtnLeft) = %q", got)
	}
	if got := CodeName(KeySpace); got != "space" {
		t.Errorf("CodeName(KeySpace) = %q", got)
	}
	if got := CodeName(0x2fe); got != "" {
		t.Errorf("CodeName(unknown) = %q, want empty", got)
	}
}
