package buzzer

import (
	"fmt"
	"sync"
	"testing"
)

func TestAttemptBuzzExactlyOneWinner(t *testing.T) {
	a := New()
	a.Open()

	const callers = 100
	var wg sync.WaitGroup
	wins := make(chan string, callers)

	for i := 0; i < callers; i++ {
		sid := fmt.Sprintf("sid-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.AttemptBuzz(sid) {
				wins <- sid
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for sid := range wins {
		winners = append(winners, sid)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winning buzz, got %d", len(winners))
	}

	state := a.Snapshot()
	if !state.Locked {
		t.Fatalf("expected buzzers locked after a win")
	}
	if state.Winner != winners[0] {
		t.Fatalf("snapshot winner %q does not match winning caller %q", state.Winner, winners[0])
	}
}

func TestAttemptBuzzFailsWhileLocked(t *testing.T) {
	a := New()
	if a.AttemptBuzz("sid-1") {
		t.Fatalf("buzz should fail before the window opens")
	}
	a.Open()
	a.Lock()
	if a.AttemptBuzz("sid-1") {
		t.Fatalf("buzz should fail while locked")
	}
}

func TestSecondBuzzFailsAfterWin(t *testing.T) {
	a := New()
	a.Open()
	if !a.AttemptBuzz("a") {
		t.Fatalf("first buzz should win")
	}
	if a.AttemptBuzz("b") {
		t.Fatalf("second buzz should fail once a winner is set")
	}
	if got := a.Snapshot().Winner; got != "a" {
		t.Fatalf("winner = %q, want %q", got, "a")
	}
}

func TestOpenStrictlyIncreasesEpoch(t *testing.T) {
	a := New()
	prev := a.Epoch()
	for i := 0; i < 5; i++ {
		next := a.Open()
		if next <= prev {
			t.Fatalf("epoch did not increase: %d -> %d", prev, next)
		}
		prev = next
	}
}

func TestWinAndResetAdvanceEpoch(t *testing.T) {
	a := New()
	e0 := a.Open()
	a.AttemptBuzz("a")
	if e1 := a.Epoch(); e1 <= e0 {
		t.Fatalf("winning buzz should advance epoch, got %d -> %d", e0, e1)
	}
	e1 := a.Epoch()
	if e2 := a.Reset(); e2 <= e1 {
		t.Fatalf("reset should advance epoch, got %d -> %d", e1, e2)
	}
}

func TestOpenClearsWinner(t *testing.T) {
	a := New()
	a.Open()
	a.AttemptBuzz("a")
	a.Open()

	state := a.Snapshot()
	if state.Winner != "" {
		t.Fatalf("open should clear the winner, got %q", state.Winner)
	}
	if state.Locked {
		t.Fatalf("open should unlock the buzzers")
	}
}

func TestLockOutClearsWinnerAndBars(t *testing.T) {
	a := New()
	a.Open()
	a.AttemptBuzz("a")
	a.LockOut("a")

	if got := a.Snapshot().Winner; got != "" {
		t.Fatalf("lockout should clear the winner, got %q", got)
	}
	if !a.IsLockedOut("a") {
		t.Fatalf("expected a to be locked out")
	}
	if a.IsLockedOut("b") {
		t.Fatalf("b should not be locked out")
	}

	a.ResetLockouts()
	if a.IsLockedOut("a") {
		t.Fatalf("reset should clear lockouts")
	}
}

func TestWinnerImpliesLocked(t *testing.T) {
	a := New()
	a.Open()
	a.AttemptBuzz("a")
	state := a.Snapshot()
	if state.Winner != "" && !state.Locked {
		t.Fatalf("invariant violated: winner set while unlocked")
	}
}
