// Package roster tracks participants across connects and reconnects. A
// participant's stable identity is its pid; the sid is the live connection
// and is rebound on every reconnect.
package roster

import (
	"sync"

	"github.com/google/uuid"
)

// Participant is one player. Records are never deleted, only marked
// disconnected, so scores survive connection churn.
type Participant struct {
	PID       string
	Name      string
	SID       string
	Score     int
	Connected bool
}

// Roster owns the pid->participant and sid->pid maps. Both lookups are O(1).
type Roster struct {
	mu       sync.RWMutex
	players  map[string]*Participant
	sidToPID map[string]string
	order    []string // pids in join order, for stable snapshots
}

func New() *Roster {
	return &Roster{
		players:  make(map[string]*Participant),
		sidToPID: make(map[string]string),
	}
}

// Join creates a participant, or rebinds an existing pid to a new sid on
// reconnect. An empty pid mints a fresh one. Score and identity are preserved
// across reconnects. Returns the participant's pid.
func (r *Roster) Join(pid, name, sid string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pid == "" {
		pid = uuid.New().String()
	}

	p, ok := r.players[pid]
	if ok {
		if p.SID != "" {
			delete(r.sidToPID, p.SID)
		}
		p.SID = sid
		p.Connected = true
		if name != "" {
			p.Name = name
		}
	} else {
		p = &Participant{PID: pid, Name: name, SID: sid, Connected: true}
		r.players[pid] = p
		r.order = append(r.order, pid)
	}
	r.sidToPID[sid] = pid
	return pid
}

// Disconnect marks the owning participant disconnected and releases the sid.
// The participant record is retained. Returns the pid, or "" if the sid is
// unknown.
func (r *Roster) Disconnect(sid string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.sidToPID[sid]
	if !ok {
		return ""
	}
	delete(r.sidToPID, sid)
	if p, ok := r.players[pid]; ok {
		p.Connected = false
		p.SID = ""
	}
	return pid
}

// ByPID returns a copy of the participant, or false if unknown.
func (r *Roster) ByPID(pid string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[pid]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// BySID resolves a live connection to its participant.
func (r *Roster) BySID(sid string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pid, ok := r.sidToPID[sid]
	if !ok {
		return Participant{}, false
	}
	p, ok := r.players[pid]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// AdjustScore applies a signed delta. Returns false for an unknown pid.
func (r *Roster) AdjustScore(pid string, delta int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[pid]
	if !ok {
		return false
	}
	p.Score += delta
	return true
}

// SetScore overwrites a participant's score (admin correction).
func (r *Roster) SetScore(pid string, score int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[pid]
	if !ok {
		return false
	}
	p.Score = score
	return true
}

// Snapshot returns all participants in join order.
func (r *Roster) Snapshot() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.order))
	for _, pid := range r.order {
		out = append(out, *r.players[pid])
	}
	return out
}
