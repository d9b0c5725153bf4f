package config

import (
	"os"
	"path/filepath"
)

// Default admission and socket settings.
const (
	// DefaultGroup is the system group gating access to the daemon.
	DefaultGroup = "inputd"

	// DefaultPolkitAction is the polkit action id checked per
	// connection.
	DefaultPolkitAction = "org.inputd.capture"

	// DefaultSocketName is the socket file name under the runtime
	// directory.
	DefaultSocketName = "inputd.sock"
)

// DefaultConfig returns the daemon defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Socket: SocketConfig{
			Path: DefaultSocketPath(),
		},
		Security: SecurityConfig{
			Group:        DefaultGroup,
			PolkitAction: DefaultPolkitAction,
		},
		RateLimit: RateLimitConfig{
			WindowSec:   60,
			MaxAttempts: 10,
			BanSec:      300,
		},
		Audit: AuditConfig{
			FilePath:     "/var/log/inputd/audit.log",
			MaxSizeBytes: 1024 * 1024,
			MaxBackups:   5,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "text",
			Output:       "stderr",
			FilePath:     "/var/log/inputd/inputd.log",
			MaxSizeBytes: 10 * 1024 * 1024,
			MaxBackups:   5,
		},
		Capture: CaptureConfig{
			Hotplug:           true,
			VirtualDeviceName: "inputd virtual device",
		},
	}
}

// DefaultSocketPath prefers the system runtime directory and falls
// back to /tmp for non-service deployments where /run is not
// writable.
func DefaultSocketPath() string {
	runDir := "/run/inputd"
	if err := os.MkdirAll(runDir, 0755); err == nil {
		return filepath.Join(runDir, DefaultSocketName)
	}
	return filepath.Join(os.TempDir(), DefaultSocketName)
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return "/etc/inputd/config.toml"
}
