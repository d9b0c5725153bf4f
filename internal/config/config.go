// Package config handles configuration loading, validation, and hot
// reload for inputd.
package config

import (
	"os"
	"strconv"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Socket configures the listening Unix socket.
	Socket SocketConfig `toml:"socket" json:"socket" yaml:"socket"`

	// Security configures the admission pipeline.
	Security SecurityConfig `toml:"security" json:"security" yaml:"security"`

	// RateLimit configures per-uid connection rate limiting.
	RateLimit RateLimitConfig `toml:"ratelimit" json:"ratelimit" yaml:"ratelimit"`

	// Audit configures the append-only audit log.
	Audit AuditConfig `toml:"audit" json:"audit" yaml:"audit"`

	// Logging configures the diagnostic log.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Capture configures physical device capture.
	Capture CaptureConfig `toml:"capture" json:"capture" yaml:"capture"`
}

// SocketConfig holds the listening socket settings.
type SocketConfig struct {
	// Path is the Unix socket path. Empty selects the runtime
	// directory default with a /tmp fallback.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// SecurityConfig holds admission settings.
type SecurityConfig struct {
	// Group is the system group a peer uid must belong to. The socket
	// file is also chowned to this group.
	Group string `toml:"group" json:"group" yaml:"group"`

	// PolkitAction is the polkit action id checked per connection.
	PolkitAction string `toml:"polkit_action" json:"polkit_action" yaml:"polkit_action"`
}

// RateLimitConfig holds the sliding-window limiter settings.
type RateLimitConfig struct {
	// WindowSec is the trailing window in seconds.
	WindowSec int `toml:"window_sec" json:"window_sec" yaml:"window_sec"`

	// MaxAttempts is the number of attempts allowed per uid inside
	// the window before a ban starts.
	MaxAttempts int `toml:"max_attempts" json:"max_attempts" yaml:"max_attempts"`

	// BanSec is the ban duration in seconds.
	BanSec int `toml:"ban_sec" json:"ban_sec" yaml:"ban_sec"`
}

// AuditConfig holds audit log settings.
type AuditConfig struct {
	// FilePath is the audit log path.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeBytes is the rotation threshold.
	MaxSizeBytes int64 `toml:"max_size_bytes" json:"max_size_bytes" yaml:"max_size_bytes"`

	// MaxBackups is the number of rotated generations to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// LoggingConfig holds diagnostic log settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output includes "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeBytes is the rotation threshold for the log file.
	MaxSizeBytes int64 `toml:"max_size_bytes" json:"max_size_bytes" yaml:"max_size_bytes"`

	// MaxBackups is the number of rotated generations to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// CaptureConfig holds capture settings.
type CaptureConfig struct {
	// Hotplug attaches readers for devices plugged in while a capture
	// is active.
	Hotplug bool `toml:"hotplug" json:"hotplug" yaml:"hotplug"`

	// VirtualDeviceName is the name the injection device registers
	// under; the capture side excludes it by name.
	VirtualDeviceName string `toml:"virtual_device_name" json:"virtual_device_name" yaml:"virtual_device_name"`
}

// ApplyEnvOverrides applies INPUTD_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INPUTD_SOCKET_PATH"); v != "" {
		c.Socket.Path = v
	}
	if v := os.Getenv("INPUTD_GROUP"); v != "" {
		c.Security.Group = v
	}
	if v := os.Getenv("INPUTD_POLKIT_ACTION"); v != "" {
		c.Security.PolkitAction = v
	}
	if v := os.Getenv("INPUTD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INPUTD_AUDIT_PATH"); v != "" {
		c.Audit.FilePath = v
	}
	if v := os.Getenv("INPUTD_RATELIMIT_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.MaxAttempts = n
		}
	}
}
