package logging

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AuditConfig holds configuration for the audit log.
type AuditConfig struct {
	// FilePath is the path to the audit log file.
	FilePath string

	// MaxSizeBytes is the rotation threshold for the active file.
	MaxSizeBytes int64

	// MaxBackups is the number of rotated generations to keep.
	MaxBackups int
}

// DefaultAuditConfig returns default audit log settings.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		FilePath:     "/var/log/inputd/audit.log",
		MaxSizeBytes: 1024 * 1024,
		MaxBackups:   5,
	}
}

// AuditLog is the daemon's append-only record of admission decisions
// and capture/simulate lifecycle events. One line per entry, rotated
// by size. Audit writes are best effort: a failing disk must not take
// the daemon down, so errors go to the diagnostic log and are
// otherwise swallowed.
type AuditLog struct {
	mu      sync.Mutex
	rotator *FileRotator
	log     *slog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewAuditLog opens the audit log file, creating it if needed.
func NewAuditLog(cfg AuditConfig, log *slog.Logger) (*AuditLog, error) {
	rotator, err := NewFileRotator(cfg.FilePath, cfg.MaxSizeBytes, cfg.MaxBackups)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLog{
		rotator: rotator,
		log:     log,
		now:     time.Now,
	}, nil
}

// Record appends one audit entry. Never returns an error; failures are
// logged and dropped.
func (a *AuditLog) Record(uid uint32, pid int32, action, details string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	line := fmt.Sprintf("%s uid=%d pid=%d action=%s %s\n",
		a.now().UTC().Format(time.RFC3339), uid, pid, action, details)

	if _, err := a.rotator.Write([]byte(line)); err != nil {
		a.log.Error("audit write failed", "action", action, "error", err)
	}
}

// Close closes the underlying file.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rotator.Close()
}
