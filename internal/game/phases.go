package game

import "github.com/mdevara/quizshow/internal/cluebank"

// Phase is the clue-lifecycle state. "Clue shown with buzzers open" is
// PhaseBuzzOpen; daily doubles skip the buzz window entirely and move from
// PhaseWagerPending straight to PhaseAnswerPending.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWagerPending
	PhaseBuzzOpen
	PhaseAnswerPending
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWagerPending:
		return "wager_pending"
	case PhaseBuzzOpen:
		return "buzz_open"
	case PhaseAnswerPending:
		return "answer_pending"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Round is the match progression. Rounds never regress.
type Round int

const (
	RoundOne   Round = 1
	RoundTwo   Round = 2
	RoundFinal Round = 3
)

// ActiveClue is the currently displayed clue. At most one exists at a time;
// a new clue cannot be selected until the active one is closed.
type ActiveClue struct {
	Coord       cluebank.Coordinate
	Clue        cluebank.Clue
	Category    string
	DailyDouble bool
}
