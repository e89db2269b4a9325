package game

import (
	"github.com/rs/zerolog/log"

	"github.com/mdevara/quizshow/internal/events"
)

// The final round: every participant wagers on a single clue, answers in
// writing, and is graded individually. Wagers and answers are keyed by pid
// so submissions survive a reconnect.

// StartFinalRound enters the final round and announces its category. Wager
// and answer maps start empty.
func (c *Controller) StartFinalRound() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle || c.active != nil || c.finalActive {
		return ErrRejectedTransition
	}

	if c.round != RoundFinal {
		c.round = RoundFinal
		c.board = nil
		c.specials = nil
	}
	c.finalActive = true
	c.finalRevealed = false
	c.finalLocked = false
	c.finalWagers = make(map[string]int)
	c.finalAnswers = make(map[string]string)

	final := c.bank.Final()
	log.Info().Str("category", final.Category).Msg("final round started")
	c.emit(events.EventTypeFinalCategory, events.FinalCategoryPayload{Category: final.Category})
	return nil
}

// SubmitFinalWager records a participant's stake. Valid until the clue is
// revealed; negative amounts coerce to zero. Unknown pids are ignored.
func (c *Controller) SubmitFinalWager(pid string, amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finalActive || c.finalRevealed {
		return ErrRejectedTransition
	}
	p, ok := c.roster.ByPID(pid)
	if !ok {
		log.Warn().Str("pid", pid).Msg("final wager from unknown participant")
		return nil
	}
	if amount < 0 {
		amount = 0
	}
	c.finalWagers[pid] = amount
	c.emit(events.EventTypeFinalStatus, c.finalStatusLocked(p.PID, p.Name))
	return nil
}

// RevealFinalClue shows the clue text and starts the answer window. When the
// window lapses, submissions lock.
func (c *Controller) RevealFinalClue() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finalActive || c.finalRevealed {
		return ErrRejectedTransition
	}
	c.finalRevealed = true

	final := c.bank.Final()
	c.emit(events.EventTypeFinalClue, events.FinalCluePayload{Text: final.Text})
	c.emit(events.EventTypeTimerStart, events.TimerStartPayload{DurationSec: int(c.timings.FinalWindow.Seconds())})
	c.timers.Schedule(c.timings.FinalWindow, func() {
		if !c.finalActive || !c.finalRevealed || c.finalLocked {
			return
		}
		c.finalLocked = true
		log.Info().Msg("final answer window closed")
		c.emit(events.EventTypeFinalLocked, nil)
	})
	return nil
}

// SubmitFinalAnswer records a participant's written answer while the window
// is open.
func (c *Controller) SubmitFinalAnswer(pid, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finalActive || !c.finalRevealed || c.finalLocked {
		return ErrRejectedTransition
	}
	p, ok := c.roster.ByPID(pid)
	if !ok {
		log.Warn().Str("pid", pid).Msg("final answer from unknown participant")
		return nil
	}
	c.finalAnswers[pid] = text
	c.emit(events.EventTypeFinalStatus, c.finalStatusLocked(p.PID, p.Name))
	return nil
}

// GradeFinal applies a participant's wager as a signed delta, exactly once:
// the wager is consumed on grading, so a repeated grade is a no-op.
func (c *Controller) GradeFinal(pid string, correct bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.finalActive {
		return ErrRejectedTransition
	}
	p, ok := c.roster.ByPID(pid)
	if !ok {
		log.Warn().Str("pid", pid).Msg("final grade for unknown participant")
		return nil
	}

	wager, ok := c.finalWagers[pid]
	if !ok {
		log.Warn().Str("pid", pid).Msg("final grade with no wager recorded")
		return nil
	}
	delete(c.finalWagers, pid)

	delta := wager
	if !correct {
		delta = -wager
	}
	c.roster.AdjustScore(pid, delta)
	if delta > 0 {
		c.setControlLocked(pid)
	}
	log.Info().Str("pid", p.PID).Bool("correct", correct).Int("delta", delta).Msg("final answer graded")
	c.emit(events.EventTypeScoreUpdate, c.playerListPayload())
	return nil
}

func (c *Controller) finalStatusLocked(pid, name string) events.FinalStatusPayload {
	_, hasWager := c.finalWagers[pid]
	answer, hasAnswer := c.finalAnswers[pid]
	return events.FinalStatusPayload{
		PID:       pid,
		Name:      name,
		HasWager:  hasWager,
		HasAnswer: hasAnswer,
		Answer:    answer,
	}
}
