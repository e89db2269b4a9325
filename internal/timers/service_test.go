package timers

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// testExecutor mimics the game's serialized command path and signals after
// every callback it runs.
type testExecutor struct {
	mu  sync.Mutex
	ran chan struct{}
}

func newTestExecutor() *testExecutor {
	return &testExecutor{ran: make(chan struct{}, 16)}
}

func (e *testExecutor) run(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
	e.ran <- struct{}{}
}

func (e *testExecutor) waitForCallback(t *testing.T) {
	t.Helper()
	select {
	case <-e.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for timer callback to reach executor")
	}
}

func TestScheduleGuardedFiresOnMatchingEpoch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exec := newTestExecutor()
	s := NewService(clock, exec.run)

	fired := false
	s.ScheduleGuarded(5*time.Second, 7, func() uint64 { return 7 }, func() { fired = true })

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	exec.waitForCallback(t)

	if !fired {
		t.Fatalf("action should fire when the live epoch matches the token")
	}
}

func TestScheduleGuardedSuppressesStaleEpoch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exec := newTestExecutor()
	s := NewService(clock, exec.run)

	fired := false
	s.ScheduleGuarded(5*time.Second, 7, func() uint64 { return 8 }, func() { fired = true })

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	exec.waitForCallback(t)

	if fired {
		t.Fatalf("action must be a no-op when the epoch advanced past the token")
	}
}

func TestScheduleGuardedEpochReadAtFireTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exec := newTestExecutor()
	s := NewService(clock, exec.run)

	var mu sync.Mutex
	epoch := uint64(3)
	live := func() uint64 {
		mu.Lock()
		defer mu.Unlock()
		return epoch
	}

	fired := false
	s.ScheduleGuarded(5*time.Second, 3, live, func() { fired = true })
	clock.BlockUntil(1)

	// Epoch advances while the timer is pending.
	mu.Lock()
	epoch = 4
	mu.Unlock()

	clock.Advance(5 * time.Second)
	exec.waitForCallback(t)

	if fired {
		t.Fatalf("timer scheduled before a reopen must be a no-op after it fires")
	}
}

func TestScheduleRunsThroughExecutor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exec := newTestExecutor()
	s := NewService(clock, exec.run)

	fired := false
	s.Schedule(3*time.Second, func() { fired = true })

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	exec.waitForCallback(t)

	if !fired {
		t.Fatalf("scheduled action should have run")
	}
}

func TestMultiplePendingTimersAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	exec := newTestExecutor()
	s := NewService(clock, exec.run)

	var firedA, firedB bool
	s.ScheduleGuarded(2*time.Second, 1, func() uint64 { return 1 }, func() { firedA = true })
	s.ScheduleGuarded(4*time.Second, 2, func() uint64 { return 1 }, func() { firedB = true })

	clock.BlockUntil(2)
	clock.Advance(4 * time.Second)
	exec.waitForCallback(t)
	exec.waitForCallback(t)

	if !firedA {
		t.Fatalf("matching timer should fire")
	}
	if firedB {
		t.Fatalf("mismatched timer must not fire even alongside a matching one")
	}
}
