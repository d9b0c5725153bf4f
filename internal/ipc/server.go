//go:build linux

package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	"inputd/internal/security"
)

// ServerConfig configures the acceptor.
type ServerConfig struct {
	// SocketPath is where the daemon listens.
	SocketPath string

	// Group is the system group given read/write access to the
	// socket file.
	Group string
}

// Server binds the listening socket and drives the admission-then-
// session lifecycle. Sessions are served one at a time: the accept
// loop waits for the current session's command loop to finish before
// accepting again, so no two privileged sessions ever coexist. A
// second client queues at the socket backlog (depth 1) meanwhile.
type Server struct {
	cfg  ServerConfig
	gate *security.Gate
	log  *slog.Logger

	// Factories for per-session resources, injectable for tests.
	NewInjector func() Injector
	NewCapturer func() Capturer
}

// NewServer creates a server. The factories must be set before Run.
func NewServer(cfg ServerConfig, gate *security.Gate, log *slog.Logger) *Server {
	return &Server{cfg: cfg, gate: gate, log: log}
}

// Run listens until ctx is cancelled. The socket file is removed and
// recreated at startup and removed again on the way out.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	defer func() {
		ln.Close()
		os.Remove(s.cfg.SocketPath)
	}()

	// Unblock Accept when the daemon shuts down.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log.Info("listening", "socket", s.cfg.SocketPath, "group", s.cfg.Group)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		cred, reason := s.gate.Validate(ctx, conn)
		if reason != security.ReasonOK {
			conn.Close()
			continue
		}

		session := NewSession(conn, cred,
			s.NewInjector(), s.NewCapturer(), s.gate.Audit, s.log)
		// Deliberately synchronous: one privileged session at a time.
		session.Run()

		if ctx.Err() != nil {
			return nil
		}
	}
}

// listen recreates the socket with a backlog of one queued connection
// and group-restricted permissions.
func (s *Server) listen() (net.Listener, error) {
	if err := os.Remove(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: s.cfg.SocketPath}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", s.cfg.SocketPath, err)
	}
	// Backlog of 1: while a session is being served, exactly one more
	// client may queue; net.Listen offers no way to say this.
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	f := os.NewFile(uintptr(fd), "inputd-listener")
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		os.Remove(s.cfg.SocketPath)
		return nil, fmt.Errorf("file listener: %w", err)
	}

	s.applySocketPermissions()
	return ln, nil
}

// applySocketPermissions restricts the socket to owner plus the access
// group. A missing group keeps the socket owner-only rather than
// opening it up.
func (s *Server) applySocketPermissions() {
	mode := os.FileMode(0600)
	if g, err := user.LookupGroup(s.cfg.Group); err == nil {
		if gid, err := strconv.Atoi(g.Gid); err == nil {
			if err := os.Chown(s.cfg.SocketPath, -1, gid); err != nil {
				s.log.Warn("chown socket", "group", s.cfg.Group, "error", err)
			} else {
				mode = 0660
			}
		}
	} else {
		s.log.Warn("access group not found, socket stays owner-only",
			"group", s.cfg.Group, "error", err)
	}

	if err := os.Chmod(s.cfg.SocketPath, mode); err != nil {
		s.log.Warn("chmod socket", "error", err)
	}
}
