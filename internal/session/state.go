package session

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

// Turn is one transcript entry. Immutable once appended; its position in the
// conversation is its implicit id.
type Turn struct {
	Role Role
	Text string
}

// CodingSubmission records the code handed in during a coding window.
type CodingSubmission struct {
	Code        string
	Lang        string
	SubmittedAt time.Time
}

// State is the single-session timer and coding-window state machine plus the
// conversation log. Pure state, no I/O and no locking: the host must
// serialize all turn-level access (one lock or a single-consumer queue).
//
// Timer expiry and coding-window timeout are detected lazily when a query
// arrives, never by a background timer.
type State struct {
	// Now is overridable in tests.
	Now func() time.Time

	startedAt   time.Time // zero means the timer was never started
	durationSec int
	finished    bool
	pausedAt    *time.Time
	pausedTotal time.Duration

	codingActive     bool
	codingEndAt      *time.Time
	codingSubmission *CodingSubmission

	conversation []Turn
	contextBlock string

	turnCounter   int
	lastAudioSHA1 string
}

func New() *State {
	return &State{Now: time.Now}
}

// Reset swaps in a fresh state, keeping only the clock hook.
func (s *State) Reset() {
	now := s.Now
	*s = State{Now: now}
}

// StartTimer resets every timer field and enters running. finished only
// clears here: it is sticky for the rest of the session.
func (s *State) StartTimer(minutes int) {
	if minutes < 1 {
		minutes = 1
	}
	s.startedAt = s.Now()
	s.durationSec = minutes * 60
	s.finished = false
	s.pausedAt = nil
	s.pausedTotal = 0
}

// PauseTimer records a pause start. No-op unless running and not paused.
func (s *State) PauseTimer() {
	if s.startedAt.IsZero() || s.pausedAt != nil {
		return
	}
	now := s.Now()
	s.pausedAt = &now
}

// ResumeTimer folds the elapsed pause into pausedTotal. No-op if not paused.
func (s *State) ResumeTimer() {
	if s.pausedAt == nil {
		return
	}
	s.pausedTotal += s.Now().Sub(*s.pausedAt)
	s.pausedAt = nil
}

// RemainingSeconds is a pure function of wall-clock time and accumulated
// state. ok is false when the timer was never started.
func (s *State) RemainingSeconds() (remaining int, ok bool) {
	if s.startedAt.IsZero() || s.durationSec == 0 {
		return 0, false
	}
	now := s.Now()
	pausedNow := time.Duration(0)
	if s.pausedAt != nil {
		pausedNow = now.Sub(*s.pausedAt)
	}
	elapsedActive := now.Sub(s.startedAt) - s.pausedTotal - pausedNow
	if elapsedActive < 0 {
		elapsedActive = 0
	}
	rem := s.durationSec - int(elapsedActive.Seconds())
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// TimeUp is true iff the timer has started and no time remains.
func (s *State) TimeUp() bool {
	rem, ok := s.RemainingSeconds()
	return ok && rem == 0
}

func (s *State) Finish()        { s.finished = true }
func (s *State) Finished() bool { return s.finished }

// StartCoding opens the coding window and pauses the main timer. When the
// window is already open it returns the existing remaining time instead of
// renewing the deadline.
func (s *State) StartCoding(window time.Duration) (remaining time.Duration) {
	now := s.Now()
	if s.codingActive && s.codingEndAt != nil {
		rem := s.codingEndAt.Sub(now)
		if rem < 0 {
			rem = 0
		}
		return rem
	}

	end := now.Add(window)
	s.codingActive = true
	s.codingEndAt = &end
	s.PauseTimer()
	return window
}

// CodingRemaining reports the coding deadline. ok is false when the window
// is not open.
func (s *State) CodingRemaining() (remaining time.Duration, ok bool) {
	if !s.codingActive || s.codingEndAt == nil {
		return 0, false
	}
	rem := s.codingEndAt.Sub(s.Now())
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// CloseCoding ends the coding window and resumes the main timer. Safe to
// call when the window is already closed.
func (s *State) CloseCoding() {
	if !s.codingActive {
		return
	}
	s.codingActive = false
	s.codingEndAt = nil
	s.ResumeTimer()
}

func (s *State) CodingActive() bool { return s.codingActive }

func (s *State) RecordSubmission(code, lang string) {
	s.codingSubmission = &CodingSubmission{Code: code, Lang: lang, SubmittedAt: s.Now()}
}

func (s *State) Submission() *CodingSubmission { return s.codingSubmission }

// SetContext replaces the resume/job-description block and clears the
// conversation, since the old transcript belongs to the old context.
func (s *State) SetContext(resume, job string) {
	s.contextBlock = fmt.Sprintf("=== RESUME ===\n%s\n\n=== JOB DESCRIPTION ===\n%s",
		strings.TrimSpace(resume), strings.TrimSpace(job))
	s.conversation = nil
}

func (s *State) Context() string { return s.contextBlock }

func (s *State) Append(role Role, text string) {
	s.conversation = append(s.conversation, Turn{Role: role, Text: text})
}

// Conversation returns a copy of the transcript in insertion order.
func (s *State) Conversation() []Turn {
	out := make([]Turn, len(s.conversation))
	copy(out, s.conversation)
	return out
}

// LastTurns returns up to n most recent turns, oldest first.
func (s *State) LastTurns(n int) []Turn {
	if n <= 0 || len(s.conversation) == 0 {
		return nil
	}
	start := len(s.conversation) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.conversation)-start)
	copy(out, s.conversation[start:])
	return out
}

func (s *State) TurnCount() int { return len(s.conversation) }

// NextTurnID bumps the monotonic turn counter and returns the new value.
func (s *State) NextTurnID() int {
	s.turnCounter++
	return s.turnCounter
}

func (s *State) TurnID() int { return s.turnCounter }

// SetAudioFingerprint remembers the hash of the most recent synthesized
// audio. Client-side de-dup only, not correctness-critical.
func (s *State) SetAudioFingerprint(sha1hex string) { s.lastAudioSHA1 = sha1hex }
func (s *State) AudioFingerprint() string           { return s.lastAudioSHA1 }
