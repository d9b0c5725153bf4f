//go:build linux

package evdev

import "testing"

// bitmap builds a Bitmap with the given bits set.
func bitmap(size int, bits ...uint16) Bitmap {
	b := make(Bitmap, size)
	for _, bit := range bits {
		b[bit/8] |= 1 << (bit % 8)
	}
	return b
}

// keyRange sets every key code in [from, to] on an existing bitmap.
func keyRange(b Bitmap, from, to uint16) Bitmap {
	for c := from; c <= to; c++ {
		b[c/8] |= 1 << (c % 8)
	}
	return b
}

func mouseCaps() Capabilities {
	return Capabilities{
		Name:       "Logitech G305",
		Phys:       "usb-0000:00:14.0-3/input0",
		EventTypes: bitmap(4, EvSyn, EvKey, EvRel),
		Keys:       bitmap(96, BtnLeft, BtnRight, BtnMiddle),
		Rels:       bitmap(2, RelX, RelY, RelWheel),
	}
}

func keyboardCaps() Capabilities {
	return Capabilities{
		Name:       "AT Translated Set 2 keyboard",
		Phys:       "isa0060/serio0/input0",
		EventTypes: bitmap(4, EvSyn, EvKey),
		Keys:       keyRange(make(Bitmap, 96), KeyEsc, KeySpace),
	}
}

func TestClassifyMouse(t *testing.T) {
	c := Classify(mouseCaps())
	if !c.Mouse || c.Keyboard {
		t.Errorf("Classify(mouse) = %+v", c)
	}
}

func TestClassifyKeyboard(t *testing.T) {
	c := Classify(keyboardCaps())
	if c.Mouse || !c.Keyboard {
		t.Errorf("Classify(keyboard) = %+v", c)
	}
}

func TestClassifyCombinedDevice(t *testing.T) {
	caps := mouseCaps()
	caps.Keys = keyRange(caps.Keys, KeyEsc, KeySpace)
	caps.Name = "Gaming Keypad"

	c := Classify(caps)
	if !c.Mouse || !c.Keyboard {
		t.Errorf("Classify(combined) = %+v, want both", c)
	}
}

func TestClassifyFewButtonsIsNotKeyboard(t *testing.T) {
	// A mouse with a handful of extra buttons must not classify as a
	// keyboard.
	caps := mouseCaps()
	caps.Keys = bitmap(96, BtnLeft, BtnRight, BtnMiddle, BtnSide, BtnExtra)
	caps.Keys[KeyQ/8] |= 1 << (KeyQ % 8)

	c := Classify(caps)
	if c.Keyboard {
		t.Error("pointer with sparse key bits classified as keyboard")
	}
}

func TestClassifyNameFallback(t *testing.T) {
	caps := Capabilities{
		Name:       "Dell Mouse MS116",
		Phys:       "usb-0000:00:14.0-1/input0",
		EventTypes: bitmap(4, EvSyn, EvRel),
		Keys:       make(Bitmap, 96),
		Rels:       bitmap(2, RelX),
	}

	c := Classify(caps)
	if !c.Mouse {
		t.Error("name fallback did not classify sparse pointer as mouse")
	}
}

func TestClassifyNeither(t *testing.T) {
	caps := Capabilities{
		Name:       "PC Speaker",
		Phys:       "isa0061/input0",
		EventTypes: bitmap(4, EvSyn),
		Keys:       make(Bitmap, 96),
		Rels:       make(Bitmap, 2),
	}

	c := Classify(caps)
	if c.Mouse || c.Keyboard {
		t.Errorf("Classify(speaker) = %+v, want neither", c)
	}
}

func TestIsVirtual(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want bool
	}{
		{"empty phys", Capabilities{Name: "some device", Phys: ""}, true},
		{"virtual in name", Capabilities{Name: "Virtual Core Pointer", Phys: "x"}, true},
		{"uinput in name", Capabilities{Name: "uinput-injector", Phys: "x"}, true},
		{"physical mouse", mouseCaps(), false},
		{"physical keyboard", keyboardCaps(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVirtual(tt.caps); got != tt.want {
				t.Errorf("IsVirtual = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestBitmapTestOutOfRange(t *testing.T) {
	b := make(Bitmap, 2)
	if b.Test(100) {
		t.Error("bit beyond the bitmap reported set")
	}
}
