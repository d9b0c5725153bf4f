package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero version",
			mutate:  func(c *Config) { c.Version = 0 },
			wantErr: "version",
		},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = Version + 1 },
			wantErr: "version",
		},
		{
			name:    "empty socket path",
			mutate:  func(c *Config) { c.Socket.Path = "" },
			wantErr: "socket.path",
		},
		{
			name:    "empty group",
			mutate:  func(c *Config) { c.Security.Group = "" },
			wantErr: "security.group",
		},
		{
			name:    "empty polkit action",
			mutate:  func(c *Config) { c.Security.PolkitAction = "" },
			wantErr: "polkit_action",
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.RateLimit.WindowSec = 0 },
			wantErr: "window_sec",
		},
		{
			name:    "negative attempts",
			mutate:  func(c *Config) { c.RateLimit.MaxAttempts = -1 },
			wantErr: "max_attempts",
		},
		{
			name:    "zero ban",
			mutate:  func(c *Config) { c.RateLimit.BanSec = 0 },
			wantErr: "ban_sec",
		},
		{
			name:    "empty audit path",
			mutate:  func(c *Config) { c.Audit.FilePath = "" },
			wantErr: "audit.file_path",
		},
		{
			name:    "zero audit backups",
			mutate:  func(c *Config) { c.Audit.MaxBackups = 0 },
			wantErr: "max_backups",
		},
		{
			name:    "bogus log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "bogus log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name:    "bogus log output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "logging.output",
		},
		{
			name:    "empty virtual device name",
			mutate:  func(c *Config) { c.Capture.VirtualDeviceName = "" },
			wantErr: "virtual_device_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.toml"))
	defer loader.Close()

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Security.Group != DefaultGroup {
		t.Errorf("group = %q, want default", cfg.Security.Group)
	}
	if cfg.RateLimit.MaxAttempts != 10 {
		t.Errorf("max attempts = %d, want 10", cfg.RateLimit.MaxAttempts)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[socket]
path = "/run/test/inputd.sock"

[security]
group = "wheel"
polkit_action = "org.example.capture"

[ratelimit]
window_sec = 30
max_attempts = 3
ban_sec = 120
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Socket.Path != "/run/test/inputd.sock" {
		t.Errorf("socket path = %q", cfg.Socket.Path)
	}
	if cfg.Security.Group != "wheel" {
		t.Errorf("group = %q", cfg.Security.Group)
	}
	if cfg.RateLimit.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.RateLimit.MaxAttempts)
	}
	// Unset sections keep their defaults.
	if cfg.Audit.MaxBackups != 5 {
		t.Errorf("audit backups = %d, want default 5", cfg.Audit.MaxBackups)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
version: 1
security:
  group: video
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Security.Group != "video" {
		t.Errorf("group = %q", cfg.Security.Group)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"version": 1, "ratelimit": {"window_sec": 15, "max_attempts": 2, "ban_sec": 60}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.WindowSec != 15 || cfg.RateLimit.MaxAttempts != 2 {
		t.Errorf("ratelimit = %+v", cfg.RateLimit)
	}
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[ratelimit]
window_sec = -5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(path)
	defer loader.Close()
	if _, err := loader.Load(); err == nil {
		t.Fatal("invalid config loaded without error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INPUTD_GROUP", "plugdev")
	t.Setenv("INPUTD_RATELIMIT_MAX_ATTEMPTS", "42")
	t.Setenv("INPUTD_LOG_LEVEL", "error")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Security.Group != "plugdev" {
		t.Errorf("group = %q", cfg.Security.Group)
	}
	if cfg.RateLimit.MaxAttempts != 42 {
		t.Errorf("max attempts = %d", cfg.RateLimit.MaxAttempts)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}
