//go:build linux

package uinput

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"inputd/internal/evdev"
)

// DefaultDeviceName is the name the virtual device registers under.
// The capture side excludes it by name as a second line of defense
// against feedback loops (uinput devices already carry no phys path).
const DefaultDeviceName = "inputd virtual device"

// device is a live synthetic device: something events can be written
// to and that can be unregistered.
type device interface {
	io.Writer
	Destroy() error
}

// Manager owns the lifecycle of the session's synthetic input device.
//
// State machine: unconfigured -> configured(w,h) -> configured(w',h')
// -> closed. Configure always destroys the previous device before
// creating the next; at no point do two devices exist.
type Manager struct {
	mu     sync.Mutex
	dev    device
	width  uint32
	height uint32
	path   string
	name   string
	log    *slog.Logger

	// create is swapped out in tests.
	create func(path, name string, width, height uint32) (device, error)
}

// NewManager returns an unconfigured manager writing to the standard
// uinput control node.
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		path:   DefaultDevicePath,
		name:   DefaultDeviceName,
		log:    log,
		create: createKernelDevice,
	}
}

// Configure replaces the current virtual device with one sized to the
// given resolution. (0, 0) means relative-only: no absolute axes are
// registered and MoveAbsolute becomes a no-op.
func (m *Manager) Configure(width, height uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dev != nil {
		if err := m.dev.Destroy(); err != nil {
			m.log.Warn("destroy virtual device", "error", err)
		}
		m.dev = nil
	}

	dev, err := m.create(m.path, m.name, width, height)
	if err != nil {
		return fmt.Errorf("create virtual device: %w", err)
	}

	m.dev = dev
	m.width = width
	m.height = height
	m.log.Info("virtual device configured", "width", width, "height", height)
	return nil
}

// SendEvent writes one raw input event followed by a sync report.
// Sending against an unconfigured or torn-down manager is a no-op, not
// an error: a simulate command racing teardown must not kill the
// session.
func (m *Manager) SendEvent(typ, code uint16, value int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil
	}
	return m.emit([]evdev.Event{{Type: typ, Code: code, Value: value}})
}

// MoveRelative emits raw pointer deltas.
func (m *Manager) MoveRelative(dx, dy int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil
	}
	return m.emit([]evdev.Event{
		{Type: evdev.EvRel, Code: evdev.RelX, Value: dx},
		{Type: evdev.EvRel, Code: evdev.RelY, Value: dy},
	})
}

// MoveAbsolute emits an absolute pointer position, clamped into the
// configured resolution. No-op when the device is relative-only.
func (m *Manager) MoveAbsolute(x, y int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil || m.width == 0 || m.height == 0 {
		return nil
	}
	x, y = ClampToResolution(x, y, m.width, m.height)
	return m.emit([]evdev.Event{
		{Type: evdev.EvAbs, Code: evdev.AbsX, Value: x},
		{Type: evdev.EvAbs, Code: evdev.AbsY, Value: y},
	})
}

// emit writes the events plus a trailing SYN_REPORT under the held
// lock, so each gesture reaches the kernel atomically.
func (m *Manager) emit(events []evdev.Event) error {
	events = append(events, evdev.Event{Type: evdev.EvSyn, Code: evdev.SynReport})
	for _, ev := range events {
		if _, err := m.dev.Write(evdev.MarshalEvent(ev)); err != nil {
			return fmt.Errorf("write input event: %w", err)
		}
	}
	return nil
}

// Configured reports whether a device currently exists.
func (m *Manager) Configured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev != nil
}

// Resolution returns the configured width and height; (0, 0) for a
// relative-only device.
func (m *Manager) Resolution() (uint32, uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

// Close destroys the device if one exists. Safe to call repeatedly.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil
	}
	err := m.dev.Destroy()
	m.dev = nil
	m.width = 0
	m.height = 0
	return err
}

// ClampToResolution clamps a coordinate pair into [0,w] x [0,h].
func ClampToResolution(x, y int32, w, h uint32) (int32, int32) {
	x = clamp(x, int32(w))
	y = clamp(y, int32(h))
	return x, y
}

func clamp(v, max int32) int32 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
