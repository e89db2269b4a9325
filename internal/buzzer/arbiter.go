// Package buzzer arbitrates the race for the right to answer. At most one
// connection holds the win at a time, and a monotonic epoch invalidates
// timers scheduled against earlier buzz windows.
package buzzer

import "sync"

// State is a consistent snapshot of the arbiter.
type State struct {
	Locked bool
	Winner string
	Epoch  uint64
}

// Arbiter owns the buzzer lock, the current winner and the lockout set.
// Every mutation happens under one mutex; AttemptBuzz in particular is a
// single check-and-set, never a read-then-write across two calls.
//
// The epoch advances on every transition that invalidates an in-flight
// window: Open, a winning AttemptBuzz, and Reset. A timer stamped with an
// older epoch must treat its firing as a no-op.
type Arbiter struct {
	mu        sync.Mutex
	locked    bool
	winner    string
	lockedOut map[string]struct{}
	epoch     uint64
}

// New returns an arbiter with the buzzers locked, no winner and epoch zero.
func New() *Arbiter {
	return &Arbiter{
		locked:    true,
		lockedOut: make(map[string]struct{}),
	}
}

// Open clears the winner, unlocks the buzzers and advances the epoch.
// Returns the new epoch so callers can stamp the window's timeout.
func (a *Arbiter) Open() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.winner = ""
	a.locked = false
	a.epoch++
	return a.epoch
}

// Lock forces the buzzers shut without declaring a winner.
func (a *Arbiter) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = true
}

// Reset locks the buzzers, clears the winner and advances the epoch. Used
// when a clue resolves or is closed, so pending window timers go stale.
func (a *Arbiter) Reset() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.winner = ""
	a.locked = true
	a.epoch++
	return a.epoch
}

// AttemptBuzz is the race-critical check-and-set. It succeeds only while the
// buzzers are open and no winner is set; on success sid becomes the winner,
// the buzzers lock and the epoch advances (staling the buzz-window timeout).
// Callers must not broadcast a win on failure.
func (a *Arbiter) AttemptBuzz(sid string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked || a.winner != "" {
		return false
	}
	a.winner = sid
	a.locked = true
	a.epoch++
	return true
}

// LockOut bars sid from buzzing again until lockouts reset, and clears the
// winner so the window can reopen for the remaining participants.
func (a *Arbiter) LockOut(sid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lockedOut[sid] = struct{}{}
	if a.winner == sid {
		a.winner = ""
	}
}

// IsLockedOut reports whether sid is barred from the current clue.
func (a *Arbiter) IsLockedOut(sid string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.lockedOut[sid]
	return ok
}

// ResetLockouts clears the lockout set. Called when a clue closes.
func (a *Arbiter) ResetLockouts() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.lockedOut)
}

// Epoch is the snapshot read timer callbacks use to detect staleness.
func (a *Arbiter) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch
}

// Snapshot returns a consistent view of the buzz state.
func (a *Arbiter) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{Locked: a.locked, Winner: a.winner, Epoch: a.epoch}
}
