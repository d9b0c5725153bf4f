//go:build linux

// Package uinput manages the daemon's synthetic input device. One
// device exists at a time per manager; reconfiguration tears the old
// device down before the new one is registered so the host input stack
// never sees two of them.
package uinput

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"inputd/internal/evdev"
)

// DefaultDevicePath is the kernel uinput control node.
const DefaultDevicePath = "/dev/uinput"

// uinput ioctl requests ('U' type).
var (
	uiDevCreate  = evdev.IO('U', 1)
	uiDevDestroy = evdev.IO('U', 2)
	uiDevSetup   = evdev.IOW('U', 3, unsafe.Sizeof(uinputSetup{}))
	uiAbsSetup   = evdev.IOW('U', 4, unsafe.Sizeof(uinputAbsSetup{}))
	uiSetEvBit   = evdev.IOW('U', 100, 4)
	uiSetKeyBit  = evdev.IOW('U', 101, 4)
	uiSetRelBit  = evdev.IOW('U', 102, 4)
	uiSetAbsBit  = evdev.IOW('U', 103, 4)
	uiSetPropBit = evdev.IOW('U', 110, 4)
)

const busVirtual = 0x06

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputAbsSetup mirrors struct uinput_abs_setup.
type uinputAbsSetup struct {
	Code uint16
	_    uint16
	Info absInfo
}

type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// kernelDevice is a live uinput device backed by the control node fd.
type kernelDevice struct {
	f *os.File
}

func (d *kernelDevice) Write(p []byte) (int, error) { return d.f.Write(p) }

func (d *kernelDevice) Destroy() error {
	err := evdev.Ioctl(d.f.Fd(), uiDevDestroy, nil)
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// createKernelDevice registers a new virtual device with the kernel.
// Relative axes, the three standard pointer buttons and the practical
// keycode range are always enabled; width/height > 0 additionally
// enables direct-mapped absolute axes at that resolution.
func createKernelDevice(path, name string, width, height uint32) (device, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fd := f.Fd()

	fail := func(stage string, err error) (device, error) {
		f.Close()
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	for _, ev := range []uint16{evdev.EvSyn, evdev.EvKey, evdev.EvRel} {
		if err := evdev.IoctlSetInt(fd, uiSetEvBit, int(ev)); err != nil {
			return fail("UI_SET_EVBIT", err)
		}
	}

	for _, btn := range []uint16{evdev.BtnLeft, evdev.BtnRight, evdev.BtnMiddle} {
		if err := evdev.IoctlSetInt(fd, uiSetKeyBit, int(btn)); err != nil {
			return fail("UI_SET_KEYBIT", err)
		}
	}
	// Full practical keyboard range. Code 0 is KEY_RESERVED, and the
	// button block is registered above.
	for code := evdev.KeyEsc; code <= evdev.KeyMax; code++ {
		if code >= evdev.BtnMisc && code < evdev.BtnJoystick {
			continue
		}
		if err := evdev.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			return fail("UI_SET_KEYBIT", err)
		}
	}

	for _, rel := range []uint16{evdev.RelX, evdev.RelY, evdev.RelWheel, evdev.RelHWheel} {
		if err := evdev.IoctlSetInt(fd, uiSetRelBit, int(rel)); err != nil {
			return fail("UI_SET_RELBIT", err)
		}
	}

	if width > 0 && height > 0 {
		if err := evdev.IoctlSetInt(fd, uiSetEvBit, int(evdev.EvAbs)); err != nil {
			return fail("UI_SET_EVBIT(EV_ABS)", err)
		}
		// Direct mapping: compositors treat the device like a tablet
		// whose coordinates map 1:1 onto the screen, bypassing pointer
		// acceleration.
		if err := evdev.IoctlSetInt(fd, uiSetPropBit, int(evdev.PropDirect)); err != nil {
			return fail("UI_SET_PROPBIT", err)
		}
		for code, max := range map[uint16]uint32{evdev.AbsX: width, evdev.AbsY: height} {
			if err := evdev.IoctlSetInt(fd, uiSetAbsBit, int(code)); err != nil {
				return fail("UI_SET_ABSBIT", err)
			}
			abs := uinputAbsSetup{Code: code}
			abs.Info.Maximum = int32(max)
			if err := evdev.Ioctl(fd, uiAbsSetup, unsafe.Pointer(&abs)); err != nil {
				return fail("UI_ABS_SETUP", err)
			}
		}
	}

	setup := uinputSetup{
		ID: inputID{Bustype: busVirtual, Vendor: 0x1d6b, Product: 0x0104, Version: 1},
	}
	copy(setup.Name[:], name)
	if err := evdev.Ioctl(fd, uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		return fail("UI_DEV_SETUP", err)
	}

	if err := evdev.Ioctl(fd, uiDevCreate, nil); err != nil {
		return fail("UI_DEV_CREATE", err)
	}

	return &kernelDevice{f: f}, nil
}
