//go:build linux

package uinput

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"inputd/internal/evdev"
)

// fakeDevice records written events and its own destruction.
type fakeDevice struct {
	events    []evdev.Event
	destroyed bool
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.events = append(d.events, evdev.UnmarshalEvent(p))
	return len(p), nil
}

func (d *fakeDevice) Destroy() error {
	d.destroyed = true
	return nil
}

func newTestManager() (*Manager, *[]*fakeDevice) {
	created := &[]*fakeDevice{}
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.create = func(path, name string, width, height uint32) (device, error) {
		d := &fakeDevice{}
		*created = append(*created, d)
		return d, nil
	}
	return m, created
}

func TestConfigureReplacesDevice(t *testing.T) {
	m, created := newTestManager()

	if err := m.Configure(0, 0); err != nil {
		t.Fatalf("first configure: %v", err)
	}
	if err := m.Configure(1920, 1080); err != nil {
		t.Fatalf("second configure: %v", err)
	}

	devs := *created
	if len(devs) != 2 {
		t.Fatalf("created %d devices, want 2", len(devs))
	}
	if !devs[0].destroyed {
		t.Error("first device not destroyed before the second was created")
	}
	if devs[1].destroyed {
		t.Error("active device destroyed")
	}
	if w, h := m.Resolution(); w != 1920 || h != 1080 {
		t.Errorf("resolution = %dx%d", w, h)
	}
}

func TestConfigureFailureLeavesNoDevice(t *testing.T) {
	m, _ := newTestManager()
	m.create = func(path, name string, width, height uint32) (device, error) {
		return nil, errors.New("uinput unavailable")
	}

	if err := m.Configure(0, 0); err == nil {
		t.Fatal("expected configure error")
	}
	if m.Configured() {
		t.Error("manager reports a device after a failed create")
	}
}

func TestSendEventAppendsSyncReport(t *testing.T) {
	m, created := newTestManager()
	if err := m.Configure(0, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := m.SendEvent(evdev.EvKey, evdev.KeyA, 1); err != nil {
		t.Fatalf("send: %v", err)
	}

	dev := (*created)[0]
	if len(dev.events) != 2 {
		t.Fatalf("wrote %d events, want event plus sync", len(dev.events))
	}
	if dev.events[0].Type != evdev.EvKey || dev.events[0].Code != evdev.KeyA {
		t.Errorf("event = %+v", dev.events[0])
	}
	if dev.events[1].Type != evdev.EvSyn || dev.events[1].Code != evdev.SynReport {
		t.Errorf("trailer = %+v, want syn report", dev.events[1])
	}
}

func TestSendEventUnconfiguredIsNoop(t *testing.T) {
	m, _ := newTestManager()
	if err := m.SendEvent(evdev.EvKey, evdev.KeyA, 1); err != nil {
		t.Errorf("send on unconfigured manager: %v", err)
	}
}

func TestMoveAbsoluteClampsIntoResolution(t *testing.T) {
	m, created := newTestManager()
	if err := m.Configure(1920, 1080); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := m.MoveAbsolute(-10, 5000); err != nil {
		t.Fatalf("move: %v", err)
	}

	dev := (*created)[0]
	if len(dev.events) != 3 {
		t.Fatalf("wrote %d events, want x, y, sync", len(dev.events))
	}
	if dev.events[0].Value != 0 {
		t.Errorf("x = %d, want clamped to 0", dev.events[0].Value)
	}
	if dev.events[1].Value != 1080 {
		t.Errorf("y = %d, want clamped to 1080", dev.events[1].Value)
	}
}

func TestMoveAbsoluteRelativeOnlyIsNoop(t *testing.T) {
	m, created := newTestManager()
	if err := m.Configure(0, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := m.MoveAbsolute(100, 100); err != nil {
		t.Fatalf("move: %v", err)
	}
	if n := len((*created)[0].events); n != 0 {
		t.Errorf("relative-only device received %d absolute events", n)
	}
}

func TestCloseDestroysDevice(t *testing.T) {
	m, created := newTestManager()
	if err := m.Configure(0, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !(*created)[0].destroyed {
		t.Error("device not destroyed on close")
	}
	if err := m.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestClampToResolution(t *testing.T) {
	tests := []struct {
		x, y         int32
		wantX, wantY int32
	}{
		{-10, 5000, 0, 1080},
		{500, 500, 500, 500},
		{1920, 1080, 1920, 1080},
		{2000, -1, 1920, 0},
	}

	for _, tt := range tests {
		x, y := ClampToResolution(tt.x, tt.y, 1920, 1080)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("ClampToResolution(%d, %d) = (%d, %d), want (%d, %d)",
				tt.x, tt.y, x, y, tt.wantX, tt.wantY)
		}
	}
}
