// Package timers schedules delayed callbacks against the game state. There
// is no cancellation: every callback is stamped with the epoch captured at
// scheduling time and re-validates it before acting, so superseded timers
// fire harmlessly.
package timers

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Service schedules callbacks on a clockwork clock. Production code passes
// clockwork.NewRealClock(); tests drive a FakeClock.
//
// The run function must execute callbacks serialized with every other state
// mutation (the game hands in its own critical section), which makes the
// staleness check and the action atomic.
type Service struct {
	clock clockwork.Clock
	run   func(func())
}

func NewService(clock clockwork.Clock, run func(func())) *Service {
	return &Service{clock: clock, run: run}
}

// Schedule fires action after delay, inside the serialized executor. Used
// for unconditional delayed work such as reveal delays; the action is still
// responsible for checking any state it depends on.
func (s *Service) Schedule(delay time.Duration, action func()) {
	go func() {
		timer := s.clock.NewTimer(delay)
		defer timer.Stop()
		<-timer.Chan()
		s.run(action)
	}()
}

// ScheduleGuarded fires action after delay only if the live epoch still
// matches the token captured at scheduling time. Both the check and the
// action run inside the serialized executor, so a timer cannot interleave
// with a buzz, a grade, or another timer.
func (s *Service) ScheduleGuarded(delay time.Duration, token uint64, live func() uint64, action func()) {
	go func() {
		timer := s.clock.NewTimer(delay)
		defer timer.Stop()
		<-timer.Chan()
		s.run(func() {
			if current := live(); current != token {
				log.Debug().
					Uint64("token", token).
					Uint64("live", current).
					Msg("stale timer suppressed")
				return
			}
			action()
		})
	}()
}
