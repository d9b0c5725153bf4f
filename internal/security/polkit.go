package security

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// PolicyChecker asks an out-of-process policy authority whether an
// identity may perform an action. Implementations must fail closed:
// any doubt is a deny.
type PolicyChecker interface {
	Authorized(ctx context.Context, uid uint32, pid int32, action string) bool
}

// polkit D-Bus coordinates.
const (
	polkitService   = "org.freedesktop.PolicyKit1"
	polkitPath      = "/org/freedesktop/PolicyKit1/Authority"
	polkitInterface = "org.freedesktop.PolicyKit1.Authority"
	polkitMethod    = polkitInterface + ".CheckAuthorization"
)

// PolkitChecker consults the system polkit authority over the system
// bus. The subject is identified by pid plus process start time, which
// closes the pid-reuse race on the authority side.
type PolkitChecker struct {
	connect func() (busConn, error)
}

// busConn is the slice of *dbus.Conn the checker uses, separable for
// tests.
type busConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// NewPolkitChecker returns a checker that dials the system bus per
// query. Connections are not cached: polkit queries happen once per
// admission, and a stale bus connection after a polkit restart would
// turn into spurious denials.
func NewPolkitChecker() *PolkitChecker {
	return &PolkitChecker{
		connect: func() (busConn, error) { return dbus.SystemBus() },
	}
}

// checkAuthResult mirrors polkit's CheckAuthorization reply.
type checkAuthResult struct {
	IsAuthorized bool
	IsChallenge  bool
	Details      map[string]string
}

// Authorized asks polkit whether (uid, pid) may perform action. Every
// failure mode -- no bus, no authority, malformed reply, challenge
// required -- is a deny.
func (p *PolkitChecker) Authorized(ctx context.Context, uid uint32, pid int32, action string) bool {
	conn, err := p.connect()
	if err != nil {
		return false
	}
	defer conn.Close()

	startTime, err := processStartTime(pid)
	if err != nil {
		return false
	}

	subject := struct {
		Kind    string
		Details map[string]dbus.Variant
	}{
		Kind: "unix-process",
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(uint32(pid)),
			"start-time": dbus.MakeVariant(startTime),
			"uid":        dbus.MakeVariant(int32(uid)),
		},
	}

	var result checkAuthResult
	obj := conn.Object(polkitService, dbus.ObjectPath(polkitPath))
	call := obj.CallWithContext(ctx, polkitMethod, 0,
		subject,
		action,
		map[string]string{},
		uint32(0), // no interaction: the daemon cannot answer a prompt
		"",
	)
	if call.Err != nil {
		return false
	}
	if err := call.Store(&result); err != nil {
		return false
	}

	return result.IsAuthorized
}

// processStartTime reads field 22 (starttime, in clock ticks) from
// /proc/<pid>/stat. The comm field may contain spaces and parentheses,
// so fields are counted from after the last ')'.
func processStartTime(pid int32) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, fmt.Errorf("read stat: %w", err)
	}

	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 {
		return 0, fmt.Errorf("malformed stat for pid %d", pid)
	}

	fields := strings.Fields(s[idx+1:])
	// fields[0] is state (field 3); starttime is field 22.
	const startTimeIndex = 22 - 3
	if len(fields) <= startTimeIndex {
		return 0, fmt.Errorf("short stat for pid %d", pid)
	}

	return strconv.ParseUint(fields[startTimeIndex], 10, 64)
}
