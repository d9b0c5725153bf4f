// inputd is a privileged input daemon. It owns the kernel input
// surface (/dev/input capture and a uinput injection device) and
// exposes it to one authorized local client at a time over a Unix
// socket, behind peer-credential, group, rate-limit, and polkit
// checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inputd/internal/capture"
	"inputd/internal/config"
	"inputd/internal/ipc"
	"inputd/internal/logging"
	"inputd/internal/security"
	"inputd/internal/uinput"
)

var version = "dev"

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to configuration file")
	socketPath := flag.String("socket", "", "listening socket path (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("inputd %s\n", version)
		return
	}

	if err := run(*configPath, *socketPath); err != nil {
		fmt.Fprintf(os.Stderr, "inputd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, socketOverride string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer loader.Close()

	if socketOverride != "" {
		cfg.Socket.Path = socketOverride
	}
	if cfg.Socket.Path == "" {
		cfg.Socket.Path = config.DefaultSocketPath()
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)
	log := logger.Logger

	audit, err := logging.NewAuditLog(logging.AuditConfig{
		FilePath:     cfg.Audit.FilePath,
		MaxSizeBytes: cfg.Audit.MaxSizeBytes,
		MaxBackups:   cfg.Audit.MaxBackups,
	}, log)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer audit.Close()

	limiter := security.NewConnectionLimiter(
		time.Duration(cfg.RateLimit.WindowSec)*time.Second,
		cfg.RateLimit.MaxAttempts,
		time.Duration(cfg.RateLimit.BanSec)*time.Second,
	)

	gate := &security.Gate{
		Resolver: &security.SystemResolver{},
		Limiter:  limiter,
		Policy:   security.NewPolkitChecker(),
		Audit:    audit,
		Log:      logger.WithComponent("gate"),
		Group:    cfg.Security.Group,
		Action:   cfg.Security.PolkitAction,
	}

	hotplug := cfg.Capture.Hotplug
	virtualName := cfg.Capture.VirtualDeviceName

	server := ipc.NewServer(ipc.ServerConfig{
		SocketPath: cfg.Socket.Path,
		Group:      cfg.Security.Group,
	}, gate, logger.WithComponent("ipc"))
	server.NewInjector = func() ipc.Injector {
		return uinput.NewManager(logger.WithComponent("uinput"))
	}
	server.NewCapturer = func() ipc.Capturer {
		m := capture.NewManager(logger.WithComponent("capture"), virtualName)
		m.SetHotplug(hotplug)
		return m
	}

	// Log level and rate limit tuning follow config file edits without
	// a restart. Group, polkit action and socket settings require one.
	loader.OnChange(func(newCfg *config.Config) {
		if level, err := logging.ParseLevel(newCfg.Logging.Level); err == nil {
			logger.SetLevel(level)
			log.Info("log level updated", "level", newCfg.Logging.Level)
		}
		limiter.SetLimits(
			time.Duration(newCfg.RateLimit.WindowSec)*time.Second,
			newCfg.RateLimit.MaxAttempts,
			time.Duration(newCfg.RateLimit.BanSec)*time.Second,
		)
		log.Info("rate limits updated",
			"window_sec", newCfg.RateLimit.WindowSec,
			"max_attempts", newCfg.RateLimit.MaxAttempts,
			"ban_sec", newCfg.RateLimit.BanSec)
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "error", err)
	}
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("inputd starting",
		"version", version,
		"socket", cfg.Socket.Path,
		"group", cfg.Security.Group,
		"polkit_action", cfg.Security.PolkitAction)
	audit.Record(0, int32(os.Getpid()), "daemon_start", "version="+version)

	err = server.Run(ctx)

	audit.Record(0, int32(os.Getpid()), "daemon_stop", "")
	log.Info("inputd stopped")
	return err
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(&logging.Config{
		Level:        level,
		Format:       format,
		Output:       cfg.Logging.Output,
		FilePath:     cfg.Logging.FilePath,
		MaxSizeBytes: cfg.Logging.MaxSizeBytes,
		MaxBackups:   cfg.Logging.MaxBackups,
		Component:    "inputd",
	})
}
