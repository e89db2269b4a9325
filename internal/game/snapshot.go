package game

import (
	"github.com/mdevara/quizshow/internal/buzzer"
	"github.com/mdevara/quizshow/internal/cluebank"
	"github.com/mdevara/quizshow/internal/events"
)

// Snapshot is a consistent view of the match for late joiners and the state
// endpoint.
type Snapshot struct {
	Round       int                   `json:"round"`
	Phase       string                `json:"phase"`
	Players     []events.PlayerInfo   `json:"players"`
	Categories  []events.CategoryInfo `json:"categories,omitempty"`
	Board       [][]bool              `json:"board,omitempty"`
	BuzzLocked  bool                  `json:"buzzers_locked"`
	BuzzWinner  string                `json:"buzz_winner,omitempty"`
	ActiveClue  *events.CluePayload   `json:"active_clue,omitempty"`
	ControlPID  string                `json:"control_pid,omitempty"`
	FinalActive bool                  `json:"final_active"`
}

// Snapshot captures the whole match state under the state lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	buzz := c.arbiter.Snapshot()
	s := Snapshot{
		Round:       int(c.round),
		Phase:       c.phase.String(),
		Players:     c.playerListPayload().Players,
		Board:       c.boardCopyLocked(),
		BuzzLocked:  buzz.Locked,
		BuzzWinner:  buzz.Winner,
		ControlPID:  c.controlPID,
		FinalActive: c.finalActive,
	}
	if c.round == RoundOne || c.round == RoundTwo {
		s.Categories = c.roundPayloadLocked().Categories
	}
	if c.active != nil {
		clue := c.cluePayload(c.active.DailyDouble)
		s.ActiveClue = &clue
	}
	return s
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Round returns the current round.
func (c *Controller) Round() Round {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

// BuzzState snapshots the arbiter.
func (c *Controller) BuzzState() buzzer.State {
	return c.arbiter.Snapshot()
}

// ControlPID returns the participant currently holding board control.
func (c *Controller) ControlPID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlPID
}

// Specials returns this round's daily-double coordinates. The host view
// needs them; players never see this.
func (c *Controller) Specials() []cluebank.Coordinate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cluebank.Coordinate(nil), c.specials...)
}

// Board returns a copy of the played matrix.
func (c *Controller) Board() [][]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardCopyLocked()
}

// Player looks up a participant by pid.
func (c *Controller) Player(pid string) (events.PlayerInfo, bool) {
	p, ok := c.roster.ByPID(pid)
	if !ok {
		return events.PlayerInfo{}, false
	}
	return events.PlayerInfo{PID: p.PID, SID: p.SID, Name: p.Name, Score: p.Score, Connected: p.Connected}, true
}
