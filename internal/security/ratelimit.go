package security

import (
	"sync"
	"time"
)

// ConnectionLimiter rate-limits connection attempts per uid with a
// sliding window and temporary bans. A uid that crosses the attempt
// threshold inside the window is banned outright: while the ban lasts,
// attempts are rejected in O(1) without touching the timestamp list.
// This blunts a compromised client hammering the socket to brute-force
// authorization or exhaust the daemon.
type ConnectionLimiter struct {
	mu          sync.Mutex
	entries     map[uint32]*limitEntry
	window      time.Duration
	maxAttempts int
	banDuration time.Duration

	// now is swapped out in tests.
	now func() time.Time
}

type limitEntry struct {
	attempts    []time.Time
	bannedUntil time.Time
}

// NewConnectionLimiter allows up to maxAttempts attempts per uid in
// any trailing window, banning offenders for banDuration.
func NewConnectionLimiter(window time.Duration, maxAttempts int, banDuration time.Duration) *ConnectionLimiter {
	return &ConnectionLimiter{
		entries:     make(map[uint32]*limitEntry),
		window:      window,
		maxAttempts: maxAttempts,
		banDuration: banDuration,
		now:         time.Now,
	}
}

// Allow records a connection attempt for uid and reports whether it is
// admitted. Crossing the threshold starts the ban.
func (l *ConnectionLimiter) Allow(uid uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[uid]
	if !ok {
		e = &limitEntry{}
		l.entries[uid] = e
	}

	if now.Before(e.bannedUntil) {
		return false
	}

	// Prune attempts that fell out of the window. Lazy, so memory is
	// bounded by maxAttempts per active uid.
	cutoff := now.Add(-l.window)
	kept := e.attempts[:0]
	for _, t := range e.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.attempts = kept

	if len(e.attempts) >= l.maxAttempts {
		e.bannedUntil = now.Add(l.banDuration)
		e.attempts = nil
		return false
	}

	e.attempts = append(e.attempts, now)
	return true
}

// SetLimits replaces the window, attempt threshold and ban duration at
// runtime (config hot reload). Existing attempt history is kept and
// re-judged against the new limits on the next Allow; bans already in
// effect run out on their original schedule.
func (l *ConnectionLimiter) SetLimits(window time.Duration, maxAttempts int, banDuration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.window = window
	l.maxAttempts = maxAttempts
	l.banDuration = banDuration
}

// RecordSuccess clears the uid's attempt history after a fully
// authorized connection, so legitimate reconnects are not penalized
// for earlier attempts.
func (l *ConnectionLimiter) RecordSuccess(uid uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, uid)
}

// Banned reports whether the uid is currently in a ban period.
func (l *ConnectionLimiter) Banned(uid uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[uid]
	return ok && l.now().Before(e.bannedUntil)
}
