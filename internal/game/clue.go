package game

import (
	"github.com/rs/zerolog/log"

	"github.com/mdevara/quizshow/internal/cluebank"
	"github.com/mdevara/quizshow/internal/events"
)

func (c *Controller) cluePayload(maxWager bool) events.CluePayload {
	p := events.CluePayload{
		CategoryIndex: c.active.Coord.Category,
		ClueIndex:     c.active.Coord.Clue,
		Category:      c.active.Category,
		Text:          c.active.Clue.Text,
		Value:         c.active.Clue.Value,
		Answer:        c.active.Clue.Answer,
		Type:          c.active.Clue.Type,
		MediaURL:      c.active.Clue.MediaURL,
		DailyDouble:   c.active.DailyDouble,
	}
	if maxWager {
		p.MaxWager = c.maxWager
		p.ControlPID = c.controlPID
	}
	return p
}

// SelectClue activates the clue at coord. Only valid while no clue is
// active. A daily-double coordinate enters the wager flow with the buzzers
// held shut; any other clue opens the buzz window immediately.
func (c *Controller) SelectClue(coord cluebank.Coordinate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle || c.active != nil {
		return ErrClueActive
	}
	if c.round != RoundOne && c.round != RoundTwo {
		return ErrRoundOver
	}
	clue, ok := c.bank.Clue(int(c.round), coord)
	if !ok {
		return ErrBadCoordinate
	}
	if c.board[coord.Category][coord.Clue] {
		return ErrCluePlayed
	}

	c.active = &ActiveClue{
		Coord:       coord,
		Clue:        clue,
		Category:    c.bank.Categories(int(c.round))[coord.Category].Name,
		DailyDouble: c.isSpecial(coord),
	}

	if c.active.DailyDouble {
		c.maxWager = clue.Value
		if p, ok := c.roster.ByPID(c.controlPID); ok && p.Score > 0 {
			c.maxWager = p.Score
		}
		c.phase = PhaseWagerPending
		c.arbiter.Lock()
		log.Info().Int("cat", coord.Category).Int("clue", coord.Clue).Int("max_wager", c.maxWager).Msg("daily double selected")
		c.emit(events.EventTypeDailyDouble, c.cluePayload(true))
		return nil
	}

	c.phase = PhaseBuzzOpen
	c.arbiter.ResetLockouts()
	clear(c.lockedOutPIDs)
	epoch := c.arbiter.Open()
	log.Info().Int("cat", coord.Category).Int("clue", coord.Clue).Int("value", clue.Value).Msg("clue selected")
	c.emit(events.EventTypeClueShown, c.cluePayload(false))
	c.emit(events.EventTypeBuzzersOpen, nil)
	c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.BuzzWindow.Seconds())})
	c.scheduleBuzzTimeout(epoch)
	return nil
}

// SetWager fixes the daily-double stake, clamped into [0, max wager], and
// starts the answer window for the controlling participant. Buzzers stay
// locked: daily doubles are a single answer without a buzz step.
func (c *Controller) SetWager(amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseWagerPending {
		return ErrRejectedTransition
	}
	if amount < 0 {
		amount = 0
	}
	if amount > c.maxWager {
		amount = c.maxWager
	}
	c.wager = amount
	c.phase = PhaseAnswerPending
	c.answerer = ""
	if p, ok := c.roster.ByPID(c.controlPID); ok {
		c.answerer = p.SID
	}

	log.Info().Int("wager", amount).Str("control_pid", c.controlPID).Msg("daily double wager set")
	c.emit(events.EventTypeClueShown, c.cluePayload(false))
	c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.AnswerWindow.Seconds())})
	c.scheduleAnswerTimeout(c.arbiter.Epoch())
	return nil
}

// Buzz attempts to win the open buzz window for sid. Exactly one concurrent
// caller can succeed; everyone else gets false and no broadcast. Lockouts are
// rejected here, both by connection and by stable identity, so a fresh sid
// from a mid-clue reconnect does not re-enter the window.
func (c *Controller) Buzz(sid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseBuzzOpen {
		return false
	}
	p, ok := c.roster.BySID(sid)
	if !ok {
		log.Warn().Str("sid", sid).Msg("buzz from unknown connection")
		return false
	}
	if c.arbiter.IsLockedOut(sid) {
		return false
	}
	if _, barred := c.lockedOutPIDs[p.PID]; barred {
		return false
	}
	if !c.arbiter.AttemptBuzz(sid) {
		return false
	}

	c.phase = PhaseAnswerPending
	c.answerer = sid
	log.Info().Str("sid", sid).Str("pid", p.PID).Str("name", p.Name).Msg("buzz winner")
	c.emit(events.EventTypeBuzzWinner, events.BuzzWinnerPayload{SID: sid, PID: p.PID, Name: p.Name})
	c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.AnswerWindow.Seconds())})
	c.scheduleAnswerTimeout(c.arbiter.Epoch())
	return true
}

// Grade resolves the pending answer for sid. Daily doubles score the stored
// wager and ignore caller points; regular clues apply the caller-supplied
// delta as trusted admin input. A positive delta hands control to the
// participant. Incorrect regular answers lock the connection out and reopen
// the buzzers for everyone else.
func (c *Controller) Grade(sid string, correct bool, points int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseAnswerPending {
		return ErrRejectedTransition
	}
	p, ok := c.roster.BySID(sid)
	if !ok {
		log.Warn().Str("sid", sid).Msg("grade for unknown connection")
		return nil
	}

	delta := points
	if c.active != nil && c.active.DailyDouble {
		delta = c.wager
		if !correct {
			delta = -c.wager
		}
	}
	c.roster.AdjustScore(p.PID, delta)
	if delta > 0 {
		c.setControlLocked(p.PID)
	}
	log.Info().Str("pid", p.PID).Bool("correct", correct).Int("delta", delta).Msg("answer graded")
	c.emit(events.EventTypeScoreUpdate, c.playerListPayload())

	switch {
	case correct:
		c.resolveLocked()
	case c.active != nil && c.active.DailyDouble:
		// Single attempt only.
		c.arbiter.Reset()
		c.emit(events.EventTypeAnswerRevealed, events.AnswerRevealedPayload{Answer: c.active.Clue.Answer})
		c.closeLocked()
	default:
		c.arbiter.LockOut(sid)
		c.lockedOutPIDs[p.PID] = struct{}{}
		c.answerer = ""
		epoch := c.arbiter.Open()
		c.phase = PhaseBuzzOpen
		c.emit(events.EventTypeBuzzersOpen, nil)
		c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.BuzzWindow.Seconds())})
		c.scheduleBuzzTimeout(epoch)
	}
	return nil
}

// ClearBuzzers is the manual override: drop any winner and reopen the buzz
// window under a fresh epoch.
func (c *Controller) ClearBuzzers() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.DailyDouble {
		return ErrRejectedTransition
	}
	if c.phase != PhaseBuzzOpen && c.phase != PhaseAnswerPending {
		return ErrRejectedTransition
	}

	c.answerer = ""
	epoch := c.arbiter.Open()
	c.phase = PhaseBuzzOpen
	c.emit(events.EventTypeBuzzersOpen, nil)
	c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.BuzzWindow.Seconds())})
	c.scheduleBuzzTimeout(epoch)
	return nil
}

// CloseClue closes the active clue, marking its coordinate played. Valid
// from Resolved, and as a forced manual close from any state with an active
// clue.
func (c *Controller) CloseClue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return ErrNoActiveClue
	}
	c.closeLocked()
	return nil
}

// AdvanceRound moves the match forward. Only valid between clues.
func (c *Controller) AdvanceRound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle || c.active != nil || c.finalActive {
		return ErrRejectedTransition
	}
	switch c.round {
	case RoundOne:
		c.resetBoardLocked(RoundTwo)
		c.emit(events.EventTypeRoundAdvanced, c.roundPayloadLocked())
	case RoundTwo:
		c.round = RoundFinal
		c.board = nil
		c.specials = nil
		c.emit(events.EventTypeRoundAdvanced, events.RoundAdvancedPayload{Round: int(RoundFinal)})
	default:
		return ErrRoundOver
	}
	return nil
}

func (c *Controller) roundPayloadLocked() events.RoundAdvancedPayload {
	cats := c.bank.Categories(int(c.round))
	infos := make([]events.CategoryInfo, 0, len(cats))
	for _, cat := range cats {
		values := make([]int, 0, len(cat.Clues))
		for _, clue := range cat.Clues {
			values = append(values, clue.Value)
		}
		infos = append(infos, events.CategoryInfo{Name: cat.Name, Values: values})
	}
	return events.RoundAdvancedPayload{Round: int(c.round), Categories: infos, Board: c.boardCopyLocked()}
}

func (c *Controller) boardCopyLocked() [][]bool {
	out := make([][]bool, len(c.board))
	for i, col := range c.board {
		out[i] = append([]bool(nil), col...)
	}
	return out
}

// resolveLocked ends the answering for the active clue: buzzers reset (which
// stales the pending window timer), the answer is revealed, and the close is
// scheduled after the reveal delay.
func (c *Controller) resolveLocked() {
	epoch := c.arbiter.Reset()
	c.phase = PhaseResolved
	c.answerer = ""
	c.emit(events.EventTypeBuzzersLocked, nil)
	c.emit(events.EventTypeAnswerRevealed, events.AnswerRevealedPayload{Answer: c.active.Clue.Answer})
	c.timers.ScheduleGuarded(c.timings.RevealDelay, epoch, c.arbiter.Epoch, func() {
		if c.active != nil && c.phase == PhaseResolved {
			c.closeLocked()
		}
	})
}

// closeLocked returns the controller to Idle: board coordinate marked
// played, per-clue lockouts cleared, epoch advanced so any straggler timer
// for this clue is a no-op.
func (c *Controller) closeLocked() {
	coord := c.active.Coord
	c.board[coord.Category][coord.Clue] = true
	c.active = nil
	c.wager = 0
	c.maxWager = 0
	c.answerer = ""
	c.arbiter.ResetLockouts()
	clear(c.lockedOutPIDs)
	c.arbiter.Reset()
	c.phase = PhaseIdle
	c.emit(events.EventTypeClueHidden, nil)
	c.emit(events.EventTypeBoardUpdate, events.BoardUpdatePayload{CategoryIndex: coord.Category, ClueIndex: coord.Clue})
}

func (c *Controller) scheduleBuzzTimeout(epoch uint64) {
	c.timers.ScheduleGuarded(c.timings.BuzzWindow, epoch, c.arbiter.Epoch, func() {
		if c.active == nil || c.phase != PhaseBuzzOpen {
			return
		}
		log.Info().Msg("buzz window expired with no winner")
		c.resolveLocked()
	})
}

// scheduleAnswerTimeout notifies when the answer window lapses. Grading
// stays manual; a grade in either direction advances the epoch first, so a
// late expiry after grading is suppressed.
func (c *Controller) scheduleAnswerTimeout(epoch uint64) {
	c.timers.ScheduleGuarded(c.timings.AnswerWindow, epoch, c.arbiter.Epoch, func() {
		if c.phase != PhaseAnswerPending {
			return
		}
		log.Info().Str("sid", c.answerer).Msg("answer window expired")
		c.emit(events.EventTypeAnswerTimeout, nil)
	})
}
