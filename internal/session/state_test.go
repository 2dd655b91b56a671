package session

import (
	"strings"
	"testing"
	"time"
)

// fakeClock drives State.Now deterministically.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) Time() time.Time         { return c.now }

func newTestState(c *fakeClock) *State {
	s := New()
	s.Now = c.Time
	return s
}

func TestRemainingUnknownBeforeStart(t *testing.T) {
	s := newTestState(newFakeClock())
	if _, ok := s.RemainingSeconds(); ok {
		t.Fatalf("RemainingSeconds() ok = true before start, want false")
	}
	if s.TimeUp() {
		t.Fatalf("TimeUp() = true before start, want false")
	}
}

func TestRemainingCountsDownWhileRunning(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(10)

	rem, ok := s.RemainingSeconds()
	if !ok || rem != 600 {
		t.Fatalf("RemainingSeconds() = %d, %v; want 600, true", rem, ok)
	}

	c.Advance(90 * time.Second)
	rem, _ = s.RemainingSeconds()
	if rem != 510 {
		t.Fatalf("RemainingSeconds() after 90s = %d, want 510", rem)
	}
}

func TestRemainingConstantWhilePaused(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(10)

	c.Advance(60 * time.Second)
	s.PauseTimer()

	before, _ := s.RemainingSeconds()
	c.Advance(5 * time.Minute)
	during, _ := s.RemainingSeconds()
	if during != before {
		t.Fatalf("RemainingSeconds() while paused = %d, want constant %d", during, before)
	}

	s.ResumeTimer()
	c.Advance(30 * time.Second)
	after, _ := s.RemainingSeconds()
	if after != before-30 {
		t.Fatalf("RemainingSeconds() after resume = %d, want %d", after, before-30)
	}
}

func TestPauseResumeNoOps(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)

	// pause before start is a no-op
	s.PauseTimer()
	s.StartTimer(5)

	c.Advance(10 * time.Second)
	s.PauseTimer()
	s.PauseTimer() // double pause must not move the pause marker
	c.Advance(20 * time.Second)
	s.ResumeTimer()
	s.ResumeTimer() // double resume must not fold pause time twice

	rem, _ := s.RemainingSeconds()
	if rem != 290 {
		t.Fatalf("RemainingSeconds() = %d, want 290", rem)
	}
}

func TestRemainingClampedAtZero(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(1)

	c.Advance(10 * time.Minute)
	rem, ok := s.RemainingSeconds()
	if !ok || rem != 0 {
		t.Fatalf("RemainingSeconds() = %d, %v; want 0, true", rem, ok)
	}
	if !s.TimeUp() {
		t.Fatalf("TimeUp() = false after expiry, want true")
	}
}

func TestStartTimerClearsFinished(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(1)
	s.Finish()
	if !s.Finished() {
		t.Fatalf("Finished() = false after Finish()")
	}
	s.StartTimer(1)
	if s.Finished() {
		t.Fatalf("Finished() = true after restart, want sticky flag cleared only by restart")
	}
}

func TestStartCodingIdempotent(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(30)

	first := s.StartCoding(5 * time.Minute)
	if first != 5*time.Minute {
		t.Fatalf("StartCoding() = %v, want 5m", first)
	}

	c.Advance(2 * time.Minute)
	second := s.StartCoding(5 * time.Minute)
	if second != 3*time.Minute {
		t.Fatalf("StartCoding() while active = %v, want remaining 3m (not a renewed deadline)", second)
	}
}

func TestCodingPausesAndResumesMainTimer(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(30)

	c.Advance(1 * time.Minute)
	s.StartCoding(5 * time.Minute)

	c.Advance(4 * time.Minute) // time inside the window must not burn the timer
	s.CloseCoding()

	rem, _ := s.RemainingSeconds()
	if rem != 29*60 {
		t.Fatalf("RemainingSeconds() after coding = %d, want %d", rem, 29*60)
	}

	// closing again must not resume (and thus skew pausedTotal) twice
	s.CloseCoding()
	c.Advance(1 * time.Minute)
	rem, _ = s.RemainingSeconds()
	if rem != 28*60 {
		t.Fatalf("RemainingSeconds() = %d, want %d", rem, 28*60)
	}
}

func TestSetContextClearsConversation(t *testing.T) {
	s := newTestState(newFakeClock())
	s.Append(RoleCandidate, "hello")
	s.SetContext("resume text", "job text")

	if got := s.TurnCount(); got != 0 {
		t.Fatalf("TurnCount() after SetContext = %d, want 0", got)
	}
	ctx := s.Context()
	if !strings.Contains(ctx, "=== RESUME ===") || !strings.Contains(ctx, "=== JOB DESCRIPTION ===") {
		t.Fatalf("Context() = %q, want resume+job block", ctx)
	}
}

func TestLastTurnsWindow(t *testing.T) {
	s := newTestState(newFakeClock())
	for i := 0; i < 10; i++ {
		role := RoleCandidate
		if i%2 == 1 {
			role = RoleInterviewer
		}
		s.Append(role, string(rune('a'+i)))
	}

	got := s.LastTurns(6)
	if len(got) != 6 {
		t.Fatalf("LastTurns(6) len = %d, want 6", len(got))
	}
	if got[0].Text != "e" || got[5].Text != "j" {
		t.Fatalf("LastTurns(6) window = %q..%q, want e..j", got[0].Text, got[5].Text)
	}

	if got := s.LastTurns(100); len(got) != 10 {
		t.Fatalf("LastTurns(100) len = %d, want 10", len(got))
	}
}

func TestResetSwapsEverything(t *testing.T) {
	c := newFakeClock()
	s := newTestState(c)
	s.StartTimer(5)
	s.Append(RoleInterviewer, "q")
	s.SetContext("r", "j")
	s.StartCoding(time.Minute)
	s.Finish()

	s.Reset()

	if _, ok := s.RemainingSeconds(); ok {
		t.Fatalf("timer survived Reset()")
	}
	if s.Finished() || s.CodingActive() || s.TurnCount() != 0 || s.Context() != "" {
		t.Fatalf("Reset() left residual state: %+v", s)
	}
	if s.Now == nil {
		t.Fatalf("Reset() dropped the clock hook")
	}
}
