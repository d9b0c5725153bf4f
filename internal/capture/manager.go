//go:build linux

// Package capture fans events from physical input devices into a
// single callback stream. Device selection is capability-driven:
// pointer and keyboard devices are picked by their event bits, and
// synthetic devices (including our own injection device) are excluded
// so injected events never loop back into the stream.
package capture

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"inputd/internal/evdev"
)

// ErrAlreadyRunning is returned by Start while a capture is active.
var ErrAlreadyRunning = errors.New("capture: already running")

// Manager owns zero or more device readers.
type Manager struct {
	mu       sync.Mutex
	readers  map[string]*evdev.Reader
	running  bool
	mouse    bool
	keyboard bool
	fn       func(evdev.Event)
	watcher  *fsnotify.Watcher
	done     chan struct{}
	log      *slog.Logger
	hotplug  bool

	// excludeNames are device names never captured from, on top of the
	// built-in virtual-device exclusion.
	excludeNames []string

	// hooks for tests
	listPaths  func() ([]string, error)
	openDevice func(path string) (inputDevice, error)
}

// inputDevice is the slice of evdev.Device the manager needs: a
// capability snapshot plus a readable, closable event stream.
type inputDevice interface {
	Capabilities() evdev.Capabilities
	evdev.EventSource
}

// NewManager returns an idle capture manager. excludeNames usually
// carries the daemon's own virtual device name.
func NewManager(log *slog.Logger, excludeNames ...string) *Manager {
	return &Manager{
		readers:      make(map[string]*evdev.Reader),
		log:          log,
		hotplug:      true,
		excludeNames: excludeNames,
		listPaths:    evdev.ListDevicePaths,
		openDevice: func(path string) (inputDevice, error) {
			return evdev.Open(path)
		},
	}
}

// SetHotplug controls whether devices plugged in during an active
// capture are attached. Takes effect on the next Start.
func (m *Manager) SetHotplug(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotplug = enabled
}

// Start enumerates devices matching the wanted classes and begins one
// read loop per device. fn runs on the reader goroutines and must be
// safe for concurrent invocation. Devices that fail to open are
// skipped; capture proceeds on the rest.
func (m *Manager) Start(wantMouse, wantKeyboard bool, fn func(evdev.Event)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	m.mouse = wantMouse
	m.keyboard = wantKeyboard
	m.fn = fn
	m.running = true
	m.done = make(chan struct{})

	paths, err := m.listPaths()
	if err != nil {
		m.log.Warn("enumerate input devices", "error", err)
		paths = nil
	}
	for _, path := range paths {
		m.attachLocked(path)
	}

	if m.hotplug {
		m.startWatcherLocked()
	}

	m.log.Info("capture started",
		"mouse", wantMouse, "keyboard", wantKeyboard, "devices", len(m.readers))
	return nil
}

// attachLocked opens, classifies and, when it matches the wanted
// classes, starts a reader for one device node. Caller holds m.mu.
func (m *Manager) attachLocked(path string) {
	if _, ok := m.readers[path]; ok {
		return
	}

	dev, err := m.openDevice(path)
	if err != nil {
		m.log.Debug("skip input device", "path", path, "error", err)
		return
	}

	caps := dev.Capabilities()
	if evdev.IsVirtual(caps) || m.isExcluded(caps.Name) {
		dev.Close()
		return
	}

	class := evdev.Classify(caps)
	want := (m.mouse && class.Mouse) || (m.keyboard && class.Keyboard)
	if !want {
		dev.Close()
		return
	}

	m.readers[path] = evdev.NewReader(dev, m.fn)
	m.log.Debug("capturing device",
		"path", path, "name", caps.Name, "mouse", class.Mouse, "keyboard", class.Keyboard)
}

func (m *Manager) isExcluded(name string) bool {
	for _, ex := range m.excludeNames {
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}

// startWatcherLocked watches /dev/input so devices plugged in while a
// capture is active join the stream. Best effort: capture works
// without the watcher.
func (m *Manager) startWatcherLocked() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.log.Warn("create hotplug watcher", "error", err)
		return
	}
	if err := watcher.Add("/dev/input"); err != nil {
		m.log.Warn("watch /dev/input", "error", err)
		watcher.Close()
		return
	}
	m.watcher = watcher
	go m.watchLoop(watcher, m.done)
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if !strings.HasPrefix(filepath.Base(event.Name), "event") {
				continue
			}
			// The node appears before udev sets it up; give it a beat.
			time.Sleep(100 * time.Millisecond)

			m.mu.Lock()
			if m.running {
				m.attachLocked(event.Name)
			}
			m.mu.Unlock()
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Stop halts all readers and discards them. Idempotent: stopping an
// idle manager does nothing, and a later Start begins from a clean
// slate.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	readers := m.readers
	m.readers = make(map[string]*evdev.Reader)
	watcher := m.watcher
	m.watcher = nil
	close(m.done)
	m.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
	for _, r := range readers {
		r.Stop()
	}
	m.log.Info("capture stopped", "devices", len(readers))
}

// Running reports whether a capture is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// DeviceCount returns the number of active readers.
func (m *Manager) DeviceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readers)
}
