package security

import "net"

// PeerCred is the kernel-reported identity of the process on the other
// end of a Unix socket. UID, GID and PID come from SO_PEERCRED and
// cannot be forged by the peer; Exe is resolved from /proc afterwards
// and is informational only.
type PeerCred struct {
	UID uint32
	GID uint32
	PID int32
	Exe string
}

// IdentityResolver answers identity questions about a connected peer.
// The production implementation reads the kernel and the system user
// database; tests substitute canned answers.
type IdentityResolver interface {
	// Peer extracts the kernel-guaranteed credentials of the process
	// behind conn.
	Peer(conn net.Conn) (*PeerCred, error)

	// ExecutablePath best-effort resolves the peer's binary path.
	// Returns "" when the process is gone or unreadable.
	ExecutablePath(pid int32) string

	// Username resolves a uid to a login name, or "" if unknown.
	Username(uid uint32) string

	// IsInGroup reports whether the uid belongs to the named system
	// group, primary or supplementary. Unknown users and groups are
	// not members.
	IsInGroup(uid uint32, group string) bool
}
