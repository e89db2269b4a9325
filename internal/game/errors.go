package game

import (
	"errors"
	"fmt"
)

// ErrRejectedTransition is the base error for commands issued in a state
// that forbids them. Rejections are returned to the issuing caller only;
// they never broadcast and are never fatal to the match.
var ErrRejectedTransition = errors.New("command not valid in current game state")

var (
	ErrClueActive    = fmt.Errorf("a clue is already active: %w", ErrRejectedTransition)
	ErrNoActiveClue  = fmt.Errorf("no clue is active: %w", ErrRejectedTransition)
	ErrBadCoordinate = fmt.Errorf("clue coordinate out of bounds: %w", ErrRejectedTransition)
	ErrCluePlayed    = fmt.Errorf("clue already played: %w", ErrRejectedTransition)
	ErrRoundOver     = fmt.Errorf("no further rounds: %w", ErrRejectedTransition)
)
