package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run
// with. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Version <= 0 || c.Version > Version {
		return fmt.Errorf("unsupported config version %d (current is %d)", c.Version, Version)
	}

	if c.Socket.Path == "" {
		return errors.New("socket.path must not be empty")
	}

	if c.Security.Group == "" {
		return errors.New("security.group must not be empty")
	}
	if c.Security.PolkitAction == "" {
		return errors.New("security.polkit_action must not be empty")
	}

	if c.RateLimit.WindowSec <= 0 {
		return fmt.Errorf("ratelimit.window_sec must be positive, got %d", c.RateLimit.WindowSec)
	}
	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("ratelimit.max_attempts must be positive, got %d", c.RateLimit.MaxAttempts)
	}
	if c.RateLimit.BanSec <= 0 {
		return fmt.Errorf("ratelimit.ban_sec must be positive, got %d", c.RateLimit.BanSec)
	}

	if c.Audit.FilePath == "" {
		return errors.New("audit.file_path must not be empty")
	}
	if c.Audit.MaxSizeBytes <= 0 {
		return fmt.Errorf("audit.max_size_bytes must be positive, got %d", c.Audit.MaxSizeBytes)
	}
	if c.Audit.MaxBackups < 1 {
		return fmt.Errorf("audit.max_backups must be at least 1, got %d", c.Audit.MaxBackups)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not text or json", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "", "stdout", "stderr", "file", "both":
	default:
		return fmt.Errorf("logging.output %q is not stdout, stderr, file or both", c.Logging.Output)
	}

	if c.Capture.VirtualDeviceName == "" {
		return errors.New("capture.virtual_device_name must not be empty")
	}

	return nil
}
