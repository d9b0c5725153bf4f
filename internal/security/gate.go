// Package security decides, once per connection, whether a local
// process may talk to the daemon. The decision pipeline runs entirely
// on kernel-guaranteed data (SO_PEERCRED) plus read-only system
// databases and the polkit authority; nothing the peer sends over the
// wire is consulted.
package security

import (
	"context"
	"fmt"
	"log/slog"
	"net"
)

// Reason names the admission outcome for auditing. One of these is
// recorded for every accepted socket.
type Reason string

const (
	ReasonOK             Reason = "ok"
	ReasonPeerCredFailed Reason = "peer_cred_failed"
	ReasonRootRejected   Reason = "root_rejected"
	ReasonRateLimited    Reason = "rate_limited"
	ReasonNotInGroup     Reason = "not_in_group"
	ReasonPolicyDenied   Reason = "policy_denied"
)

// unknownUID is the audit attribution for connections whose peer
// credentials could not be resolved. It is the kernel's invalid uid
// (-1 as uint32), which no real account can carry.
const unknownUID = ^uint32(0)

// Auditor records admission and lifecycle events. Implemented by
// logging.AuditLog; narrow here to avoid coupling.
type Auditor interface {
	Record(uid uint32, pid int32, action, details string)
}

// Gate composes credential resolution, rate limiting, group membership
// and the external policy authority into one admission decision.
type Gate struct {
	Resolver IdentityResolver
	Limiter  *ConnectionLimiter
	Policy   PolicyChecker
	Audit    Auditor
	Log      *slog.Logger

	// Group is the system group gating access to the daemon.
	Group string
	// Action is the polkit action id checked per connection.
	Action string
}

// Validate runs the admission pipeline for a freshly accepted
// connection. It short-circuits on the first failing check, audits the
// specific reason, and returns the peer credentials only on full
// success. The caller closes the connection on any non-OK reason; no
// session state exists at that point.
func (g *Gate) Validate(ctx context.Context, conn net.Conn) (*PeerCred, Reason) {
	cred, err := g.Resolver.Peer(conn)
	if err != nil {
		// No identity, no audit attribution either; record under the
		// invalid uid so the attempt still leaves a trace that cannot
		// be confused with a real uid, least of all root's.
		g.Audit.Record(unknownUID, 0, "connect_denied", "reason="+string(ReasonPeerCredFailed))
		g.Log.Warn("peer credential resolution failed", "error", err)
		return nil, ReasonPeerCredFailed
	}
	cred.Exe = g.Resolver.ExecutablePath(cred.PID)

	// Root never talks to this daemon. A root process has no business
	// asking an unprivileged-facing channel for input capture, and
	// rejecting it here removes a privilege-escalation foothold. This
	// deliberately precedes the policy check.
	if cred.UID == 0 {
		g.deny(cred, ReasonRootRejected)
		return nil, ReasonRootRejected
	}

	if !g.Limiter.Allow(cred.UID) {
		g.deny(cred, ReasonRateLimited)
		return nil, ReasonRateLimited
	}

	if !g.Resolver.IsInGroup(cred.UID, g.Group) {
		g.deny(cred, ReasonNotInGroup)
		return nil, ReasonNotInGroup
	}

	if !g.Policy.Authorized(ctx, cred.UID, cred.PID, g.Action) {
		g.deny(cred, ReasonPolicyDenied)
		return nil, ReasonPolicyDenied
	}

	g.Limiter.RecordSuccess(cred.UID)
	g.Audit.Record(cred.UID, cred.PID, "connect_allowed",
		fmt.Sprintf("user=%s exe=%s", g.Resolver.Username(cred.UID), cred.Exe))
	g.Log.Info("client admitted",
		"uid", cred.UID, "pid", cred.PID, "exe", cred.Exe)
	return cred, ReasonOK
}

func (g *Gate) deny(cred *PeerCred, reason Reason) {
	g.Audit.Record(cred.UID, cred.PID, "connect_denied",
		fmt.Sprintf("reason=%s exe=%s", reason, cred.Exe))
	g.Log.Warn("client rejected",
		"uid", cred.UID, "pid", cred.PID, "reason", string(reason))
}
