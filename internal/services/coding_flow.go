package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/veydan/intervox/internal/prompts"
	"github.com/veydan/intervox/internal/session"
	"github.com/veydan/intervox/internal/utils"
)

// codeSnippetLimit bounds how much of a submission reaches the model. The
// reaction only needs the shape of the code, not all of it.
const codeSnippetLimit = 800

type CodingStart struct {
	RemainingSec int
	AlreadyOpen  bool
}

type CodingStatus struct {
	Active       bool
	RemainingSec int
	TimedOut     bool
	// Turn carries the interviewer's timeout reaction when TimedOut is set.
	Turn *TurnResult
}

// StartCoding opens (or re-reports) the coding window. Starting is
// idempotent: a second call returns the live deadline without extending it.
func (s *InterviewService) StartCoding() (*CodingStart, error) {
	const op = "InterviewService.StartCoding"

	if s.state.Finished() || s.state.TimeUp() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview is over, coding window unavailable", nil)
	}

	alreadyOpen := s.state.CodingActive()
	remaining := s.state.StartCoding(s.cfg.CodingWindow)
	return &CodingStart{
		RemainingSec: int(remaining.Seconds()),
		AlreadyOpen:  alreadyOpen,
	}, nil
}

// SubmitCode records the submission, closes the window (resuming the main
// timer exactly once), and produces the interviewer's reaction.
func (s *InterviewService) SubmitCode(ctx context.Context, code, language string) (*TurnResult, error) {
	const op = "InterviewService.SubmitCode"

	if strings.TrimSpace(code) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty code submission", nil)
	}

	s.state.RecordSubmission(code, language)
	s.state.CloseCoding()
	s.state.Append(session.RoleCandidate, fmt.Sprintf("[Coding submission attached: %d chars]", len(code)))

	reply := s.model.Generate(ctx, s.codingPrompt(prompts.CodingSubmitInstruction, code), 0.4, 120)
	reply = s.repairCodingReply(ctx, reply, code, prompts.CodingSubmitFallback)

	s.state.Append(session.RoleInterviewer, reply)

	res := &TurnResult{AssistantText: reply}
	s.attachAudio(ctx, res)
	s.countTurn("coding_submit")
	return res, nil
}

// PollCoding reports the window state and lazily fires the timeout: the
// first poll at or past the deadline closes the window and yields the
// interviewer's timeout turn. There is no background timer.
func (s *InterviewService) PollCoding(ctx context.Context) *CodingStatus {
	rem, ok := s.state.CodingRemaining()
	if !ok {
		return &CodingStatus{Active: false}
	}
	if rem > 0 {
		return &CodingStatus{Active: true, RemainingSec: int(rem.Seconds())}
	}

	s.state.CloseCoding()

	reply := s.model.Generate(ctx, s.codingPrompt(prompts.CodingTimeoutInstruction, ""), 0.4, 90)
	reply = s.repairCodingReply(ctx, reply, "", prompts.CodingTimeoutFallback)

	s.state.Append(session.RoleInterviewer, reply)

	res := &TurnResult{AssistantText: reply}
	s.attachAudio(ctx, res)
	s.countTurn("coding_timeout")
	return &CodingStatus{TimedOut: true, Turn: res}
}

func (s *InterviewService) codingPrompt(instruction, code string) string {
	parts := []string{prompts.Interviewer}
	if ctx := s.state.Context(); ctx != "" {
		parts = append(parts, "\n"+ctx+"\n")
	}
	parts = append(parts, "=== CONVERSATION ===")
	for _, turn := range s.state.LastTurns(contextWindow) {
		label := "Candidate"
		if turn.Role == session.RoleInterviewer {
			label = "Interviewer"
		}
		parts = append(parts, label+": "+turn.Text)
	}
	if code != "" {
		snippet := code
		if len(snippet) > codeSnippetLimit {
			snippet = snippet[:codeSnippetLimit]
		}
		parts = append(parts, "\n=== SUBMITTED CODE ===\n"+snippet)
	}
	parts = append(parts, "\n"+instruction)
	return strings.Join(parts, "\n")
}

// repairCodingReply runs the same ladder as conversational turns with a
// shorter budget. The reflective follow-up only has to be a real question;
// filler checks would reject the deliberately brief acknowledgements.
func (s *InterviewService) repairCodingReply(ctx context.Context, reply, code, fallback string) string {
	stages := []repairStage{
		{prompts.CodingMustEndQuestion, func(r string) bool { return r != "" && hasQuestionMark(r) }},
	}
	return runRepairLadder(reply, stages, fallback, func(instruction string) string {
		return s.model.Generate(ctx, s.codingPrompt(instruction, code), 0.4, 90)
	})
}
