//go:build linux

package evdev

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"
)

// Bitmap is a kernel capability bitmask as returned by EVIOCGBIT.
type Bitmap []byte

// Test reports whether the given bit is set.
func (b Bitmap) Test(bit uint16) bool {
	idx := int(bit) / 8
	if idx >= len(b) {
		return false
	}
	return b[idx]&(1<<(bit%8)) != 0
}

// CountRange returns how many bits are set in [from, to].
func (b Bitmap) CountRange(from, to uint16) int {
	n := 0
	for c := from; c <= to; c++ {
		if b.Test(c) {
			n++
		}
	}
	return n
}

// Capabilities describes everything the classifier needs to know about
// a device. It is a plain value so classification can be tested
// without device nodes.
type Capabilities struct {
	Name       string
	Phys       string
	EventTypes Bitmap
	Keys       Bitmap
	Rels       Bitmap
	Props      Bitmap
}

// Class is the result of classifying a device. A combined device (some
// gaming hardware exposes keyboard and pointer under one node) may set
// both flags.
type Class struct {
	Mouse    bool
	Keyboard bool
}

// letter-row key count a device must advertise to count as a keyboard.
// A pointer with a few auxiliary buttons never gets close; real
// keyboards advertise nearly the whole range.
const keyboardKeyThreshold = 20

// Classify decides whether a device is a pointer, a keyboard, both, or
// neither, from its capability bits. The device name is a secondary
// signal only, used to break ties for devices with unusual capability
// sets.
func Classify(caps Capabilities) Class {
	var c Class

	if caps.EventTypes.Test(EvRel) &&
		caps.Rels.Test(RelX) && caps.Rels.Test(RelY) &&
		caps.Keys.Test(BtnLeft) {
		c.Mouse = true
	}

	if caps.EventTypes.Test(EvKey) &&
		caps.Keys.CountRange(KeyEsc, KeySpace) >= keyboardKeyThreshold {
		c.Keyboard = true
	}

	// Name heuristics as a fallback for devices whose capability bits
	// are too sparse to decide.
	name := strings.ToLower(caps.Name)
	if !c.Mouse && !c.Keyboard {
		if strings.Contains(name, "keyboard") && caps.EventTypes.Test(EvKey) {
			c.Keyboard = true
		}
		if strings.Contains(name, "mouse") && caps.EventTypes.Test(EvRel) {
			c.Mouse = true
		}
	}

	return c
}

// IsVirtual reports whether the capabilities describe a synthetic
// device: an empty phys path (uinput devices have none) or a telltale
// name. Capturing from such a device would loop our own injections
// back into the capture stream.
func IsVirtual(caps Capabilities) bool {
	if caps.Phys == "" {
		return true
	}
	name := strings.ToLower(caps.Name)
	return strings.Contains(name, "virtual") || strings.Contains(name, "uinput")
}

// Device is an open /dev/input/event* node.
type Device struct {
	f    *os.File
	path string
	caps Capabilities
}

// Open opens a device node read-only and reads its capabilities.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	d := &Device{f: f, path: path}
	if err := d.readCapabilities(); err != nil {
		f.Close()
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	return d, nil
}

func (d *Device) readCapabilities() error {
	fd := d.f.Fd()

	nameBuf := make([]byte, 256)
	if err := Ioctl(fd, eviocgname(uintptr(len(nameBuf))), unsafe.Pointer(&nameBuf[0])); err != nil {
		return fmt.Errorf("EVIOCGNAME: %w", err)
	}
	d.caps.Name = cString(nameBuf)

	// Phys is optional; many virtual devices simply do not have one.
	physBuf := make([]byte, 256)
	if err := Ioctl(fd, eviocgphys(uintptr(len(physBuf))), unsafe.Pointer(&physBuf[0])); err == nil {
		d.caps.Phys = cString(physBuf)
	}

	evBits := make(Bitmap, 4)
	if err := Ioctl(fd, eviocgbit(0, uintptr(len(evBits))), unsafe.Pointer(&evBits[0])); err != nil {
		return fmt.Errorf("EVIOCGBIT(0): %w", err)
	}
	d.caps.EventTypes = evBits

	keyBits := make(Bitmap, (int(KeyMax)+8)/8)
	if d.caps.EventTypes.Test(EvKey) {
		if err := Ioctl(fd, eviocgbit(uintptr(EvKey), uintptr(len(keyBits))), unsafe.Pointer(&keyBits[0])); err != nil {
			return fmt.Errorf("EVIOCGBIT(EV_KEY): %w", err)
		}
	}
	d.caps.Keys = keyBits

	relBits := make(Bitmap, 2)
	if d.caps.EventTypes.Test(EvRel) {
		if err := Ioctl(fd, eviocgbit(uintptr(EvRel), uintptr(len(relBits))), unsafe.Pointer(&relBits[0])); err != nil {
			return fmt.Errorf("EVIOCGBIT(EV_REL): %w", err)
		}
	}
	d.caps.Rels = relBits

	propBits := make(Bitmap, (int(PropMax)+8)/8)
	if err := Ioctl(fd, eviocgprop(uintptr(len(propBits))), unsafe.Pointer(&propBits[0])); err == nil {
		d.caps.Props = propBits
	}

	return nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Capabilities returns the capability snapshot taken at open time.
func (d *Device) Capabilities() Capabilities { return d.caps }

// Read fills buf with raw bytes from the device. Blocks until events
// arrive or the file is closed.
func (d *Device) Read(buf []byte) (int, error) { return d.f.Read(buf) }

// Close closes the device node. Safe to call while a Read is blocked;
// the read fails and the reader loop exits.
func (d *Device) Close() error { return d.f.Close() }

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ListDevicePaths returns all event device nodes, sorted for stable
// enumeration order.
func ListDevicePaths() ([]string, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
