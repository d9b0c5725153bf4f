//go:build linux

package evdev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding, from asm-generic/ioctl.h.
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | size<<iocSizeShift | typ<<iocTypeShift | nr<<iocNrShift
}

// Evdev ioctl requests ('E' type).
func eviocgname(size uintptr) uintptr { return ioc(iocRead, 'E', 0x06, size) }
func eviocgphys(size uintptr) uintptr { return ioc(iocRead, 'E', 0x07, size) }
func eviocgprop(size uintptr) uintptr { return ioc(iocRead, 'E', 0x09, size) }
func eviocgbit(ev, size uintptr) uintptr {
	return ioc(iocRead, 'E', 0x20+ev, size)
}

// Ioctl issues a raw ioctl against fd with an arbitrary argument
// pointer. Shared with the uinput package.
func Ioctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// IoctlSetInt issues an ioctl whose argument is a plain integer value
// rather than a pointer (the uinput UI_SET_* family).
func IoctlSetInt(fd uintptr, req uintptr, val int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(val))
	if errno != 0 {
		return errno
	}
	return nil
}

// IOW builds a write-direction ioctl request for the given type, number
// and payload size.
func IOW(typ, nr, size uintptr) uintptr { return ioc(iocWrite, typ, nr, size) }

// IO builds a no-argument ioctl request.
func IO(typ, nr uintptr) uintptr { return ioc(iocNone, typ, nr, 0) }
