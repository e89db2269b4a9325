// Package game owns the round/clue lifecycle for a single live match. All
// commands funnel through the Controller, which serializes every mutation
// under one mutex and broadcasts each transition before releasing it, so
// sinks always observe consistent snapshots.
package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mdevara/quizshow/internal/buzzer"
	"github.com/mdevara/quizshow/internal/cluebank"
	"github.com/mdevara/quizshow/internal/events"
	"github.com/mdevara/quizshow/internal/roster"
	"github.com/mdevara/quizshow/internal/timers"
)

// Timings are the wall-clock windows the controller schedules.
type Timings struct {
	BuzzWindow   time.Duration
	AnswerWindow time.Duration
	FinalWindow  time.Duration
	RevealDelay  time.Duration
}

// DefaultTimings mirrors the windows the presentation layer counts down.
func DefaultTimings() Timings {
	return Timings{
		BuzzWindow:   5 * time.Second,
		AnswerWindow: 10 * time.Second,
		FinalWindow:  30 * time.Second,
		RevealDelay:  3 * time.Second,
	}
}

// Controller is the match coordinator. It exclusively owns the active clue,
// the board matrix and the round phase; buzz state lives in the arbiter and
// participant records in the roster, but both are only ever mutated through
// Controller methods.
type Controller struct {
	mu sync.Mutex

	bank    *cluebank.Bank
	roster  *roster.Roster
	arbiter *buzzer.Arbiter
	timers  *timers.Service
	sink    events.Broadcaster
	timings Timings
	rng     *rand.Rand

	phase    Phase
	round    Round
	board    [][]bool
	specials []cluebank.Coordinate

	active   *ActiveClue
	wager    int
	maxWager int
	answerer string // sid holding the answer window, if any

	// Per-clue lockouts by stable identity. The arbiter tracks the live
	// connection; this set makes a lockout survive a mid-clue reconnect.
	lockedOutPIDs map[string]struct{}

	controlPID string

	finalActive   bool
	finalRevealed bool
	finalLocked   bool
	finalWagers   map[string]int
	finalAnswers  map[string]string
}

// New builds a controller for round one with a fresh board and daily-double
// draw. The clock is injected so tests can drive timers with a fake.
func New(bank *cluebank.Bank, sink events.Broadcaster, clock clockwork.Clock, timings Timings) *Controller {
	c := &Controller{
		bank:          bank,
		roster:        roster.New(),
		arbiter:       buzzer.New(),
		sink:          sink,
		timings:       timings,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		phase:         PhaseIdle,
		lockedOutPIDs: make(map[string]struct{}),
		finalWagers:   make(map[string]int),
		finalAnswers:  make(map[string]string),
	}
	c.timers = timers.NewService(clock, c.runSerialized)
	c.resetBoardLocked(RoundOne)
	return c
}

// runSerialized is the executor handed to the timer service: fired callbacks
// run under the same mutex as every command, so a timeout can never
// interleave with a buzz or a grade.
func (c *Controller) runSerialized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func (c *Controller) emit(eventType events.EventType, payload any) {
	ev, err := events.New(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	c.sink.Broadcast(ev)
}

func (c *Controller) playerListPayload() events.PlayerListPayload {
	players := c.roster.Snapshot()
	infos := make([]events.PlayerInfo, 0, len(players))
	for _, p := range players {
		infos = append(infos, events.PlayerInfo{
			PID:       p.PID,
			SID:       p.SID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	return events.PlayerListPayload{Players: infos}
}

// Join registers a participant or rebinds a reconnecting one, preserving its
// score. Returns the stable pid (minted when the caller has none).
func (c *Controller) Join(pid, name, sid string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	pid = c.roster.Join(pid, name, sid)
	log.Info().Str("pid", pid).Str("sid", sid).Str("name", name).Msg("player joined")
	c.emit(events.EventTypePlayerList, c.playerListPayload())
	return pid
}

// Disconnect marks the connection's participant disconnected. The record and
// its score are retained for reconnects.
func (c *Controller) Disconnect(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pid := c.roster.Disconnect(sid)
	if pid == "" {
		log.Warn().Str("sid", sid).Msg("disconnect for unknown connection")
		return
	}
	log.Info().Str("pid", pid).Str("sid", sid).Msg("player disconnected")
	c.emit(events.EventTypePlayerList, c.playerListPayload())
}

// SetAbsoluteScore overwrites a participant's score (admin correction).
// Unknown pids are ignored.
func (c *Controller) SetAbsoluteScore(pid string, score int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roster.SetScore(pid, score) {
		log.Warn().Str("pid", pid).Msg("score set for unknown participant")
		return
	}
	c.emit(events.EventTypeScoreUpdate, c.playerListPayload())
}

// setControlLocked hands the next clue selection to pid.
func (c *Controller) setControlLocked(pid string) {
	if c.controlPID == pid {
		return
	}
	c.controlPID = pid
	name := ""
	if p, ok := c.roster.ByPID(pid); ok {
		name = p.Name
	}
	c.emit(events.EventTypeControlChange, events.ControlChangePayload{PID: pid, Name: name})
}

// resetBoardLocked installs a fresh all-unplayed board for the round and
// re-draws its daily doubles.
func (c *Controller) resetBoardLocked(round Round) {
	c.round = round
	cats := c.bank.Categories(int(round))
	c.board = make([][]bool, len(cats))
	for i, cat := range cats {
		c.board[i] = make([]bool, len(cat.Clues))
	}
	c.specials = c.bank.DrawSpecials(int(round), c.rng)
	log.Info().Int("round", int(round)).Interface("daily_doubles", c.specials).Msg("board reset")
}

func (c *Controller) isSpecial(coord cluebank.Coordinate) bool {
	for _, s := range c.specials {
		if s == coord {
			return true
		}
	}
	return false
}
