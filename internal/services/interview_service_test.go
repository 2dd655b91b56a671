package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/veydan/intervox/internal/prompts"
	"github.com/veydan/intervox/internal/session"
	"github.com/veydan/intervox/internal/utils"
)

func newTestInterview(speech *fakeSpeech, model *fakeModel) (*InterviewService, *fakeClock) {
	clock := newFakeClock()
	state := session.New()
	state.Now = clock.Now
	svc := NewInterviewService(state, speech, model, InterviewConfig{
		VoiceName:    "en-US-Studio-Q",
		CodingWindow: 5 * time.Minute,
	}, testLogger(), nil)
	return svc, clock
}

func TestVoiceTurnHappyPath(t *testing.T) {
	speech := &fakeSpeech{transcript: "I built a payments service in Go"}
	model := &fakeModel{replies: []string{"Nice. What was the hardest scaling problem you hit?"}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	res, err := svc.VoiceTurn(context.Background(), []byte("audio"), "turn.webm")
	if err != nil {
		t.Fatal(err)
	}
	if res.UserText != "I built a payments service in Go" {
		t.Fatalf("user text %q", res.UserText)
	}
	if res.AssistantText != "Nice. What was the hardest scaling problem you hit?" {
		t.Fatalf("assistant text %q", res.AssistantText)
	}
	if res.Audio == nil || res.AudioID == "" {
		t.Fatal("expected synthesized audio with a fingerprint")
	}
	if res.Finished {
		t.Fatal("turn must not be finished")
	}
	if res.TurnID != 1 {
		t.Fatalf("turn id %d", res.TurnID)
	}

	conv := svc.State().Conversation()
	if len(conv) != 2 {
		t.Fatalf("conversation length %d", len(conv))
	}
	if conv[0].Role != session.RoleCandidate || conv[1].Role != session.RoleInterviewer {
		t.Fatalf("conversation roles wrong: %+v", conv)
	}

	// one generation, with the react-and-ask instruction
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], prompts.ReactAndAsk) {
		t.Fatalf("prompts: %v", model.prompts)
	}
}

func TestVoiceTurnEmptyAudioRejected(t *testing.T) {
	svc, _ := newTestInterview(&fakeSpeech{}, &fakeModel{})
	svc.StartInterview(15)

	_, err := svc.VoiceTurn(context.Background(), nil, "")
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("want invalid-argument, got %v", err)
	}
}

func TestVoiceTurnAfterExpiryWrapsUp(t *testing.T) {
	speech := &fakeSpeech{transcript: "still talking"}
	model := &fakeModel{}
	svc, clock := newTestInterview(speech, model)
	svc.StartInterview(1)
	clock.Advance(2 * time.Minute)

	res, err := svc.VoiceTurn(context.Background(), []byte("audio"), "turn.webm")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished {
		t.Fatal("expired turn must report finished")
	}
	if res.AssistantText != prompts.WrapUpLine {
		t.Fatalf("got %q, want the wrap-up line", res.AssistantText)
	}
	if len(model.prompts) != 0 {
		t.Fatal("expired turn must not hit the model")
	}
	if !svc.State().Finished() {
		t.Fatal("session must be finished")
	}

	// subsequent turns stay finished
	res2, err := svc.VoiceTurn(context.Background(), []byte("more"), "turn.webm")
	if err != nil {
		t.Fatal(err)
	}
	if !res2.Finished || res2.AssistantText != prompts.WrapUpLine {
		t.Fatalf("follow-up after expiry: %+v", res2)
	}
}

func TestVoiceTurnEmptyTranscriptForcesNextQuestion(t *testing.T) {
	speech := &fakeSpeech{transcript: ""}
	model := &fakeModel{replies: []string{"Could you describe your current role and team?"}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	res, err := svc.VoiceTurn(context.Background(), []byte("noise"), "turn.webm")
	if err != nil {
		t.Fatal(err)
	}
	if res.UserText != "" {
		t.Fatalf("user text %q", res.UserText)
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], prompts.AskNext) {
		t.Fatalf("empty transcript must use the ask-next instruction: %v", model.prompts)
	}

	// the empty candidate turn is still recorded
	conv := svc.State().Conversation()
	if len(conv) != 2 || conv[0].Text != "" {
		t.Fatalf("conversation: %+v", conv)
	}
}

func TestVoiceTurnNavigationPhrase(t *testing.T) {
	speech := &fakeSpeech{transcript: "Can we move on please"}
	model := &fakeModel{replies: []string{"Sure. How do you approach testing a new service?"}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	if _, err := svc.VoiceTurn(context.Background(), []byte("audio"), ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(model.prompts[0], prompts.AskNext) {
		t.Fatal("navigation phrase must use the ask-next instruction")
	}
}

func TestVoiceTurnSpelledLettersDiscarded(t *testing.T) {
	speech := &fakeSpeech{transcript: "s u b o d h"}
	model := &fakeModel{replies: []string{"What project are you most proud of recently?"}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	res, err := svc.VoiceTurn(context.Background(), []byte("audio"), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.UserText != "" {
		t.Fatalf("spelled-letter transcript must be discarded, got %q", res.UserText)
	}
}

func TestVoiceTurnSynthesisFailureKeepsText(t *testing.T) {
	speech := &fakeSpeech{transcript: "hello", synthErr: utils.ES(utils.CodeUnavailable, utils.StageTTS, "t", "tts down", nil)}
	model := &fakeModel{replies: []string{"Welcome. Could you introduce yourself briefly for me?"}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	res, err := svc.VoiceTurn(context.Background(), []byte("audio"), "")
	if err != nil {
		t.Fatalf("synthesis failure must not fail the turn: %v", err)
	}
	if res.Audio != nil {
		t.Fatal("audio must be nil when synthesis fails")
	}
	if res.Warn == "" {
		t.Fatal("warn must describe the synthesis failure")
	}
	if res.AssistantText == "" {
		t.Fatal("text must survive synthesis failure")
	}
}

func TestVoiceTurnRepairLadderFallback(t *testing.T) {
	speech := &fakeSpeech{transcript: "we used kafka for events"}
	// primary reply is filler; both regenerations stay invalid
	model := &fakeModel{replies: []string{"Thanks.", "Okay.", "Fine."}}
	svc, _ := newTestInterview(speech, model)
	svc.StartInterview(15)

	res, err := svc.VoiceTurn(context.Background(), []byte("audio"), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.AssistantText != prompts.FallbackQuestion {
		t.Fatalf("got %q, want the fallback question", res.AssistantText)
	}
}

func TestNextQuestionGreetsFirst(t *testing.T) {
	model := &fakeModel{replies: []string{"Good morning! Could you briefly introduce yourself?"}}
	svc, _ := newTestInterview(&fakeSpeech{}, model)
	svc.StartInterview(15)

	res, err := svc.NextQuestion(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(model.prompts[0], prompts.Greeting) {
		t.Fatal("first turn must use the greeting instruction")
	}
	if res.AssistantText == "" || res.Audio == nil {
		t.Fatalf("result: %+v", res)
	}
}

func TestPromptWindowIsBounded(t *testing.T) {
	model := &fakeModel{replies: []string{"And what would you change about that design today?"}}
	svc, _ := newTestInterview(&fakeSpeech{transcript: "answer"}, model)
	svc.SetContext("resume text", "job text")
	svc.StartInterview(15)

	for i := 0; i < 10; i++ {
		svc.State().Append(session.RoleCandidate, "older answer")
		svc.State().Append(session.RoleInterviewer, "older question?")
	}

	if _, err := svc.NextQuestion(context.Background()); err != nil {
		t.Fatal(err)
	}
	prompt := model.prompts[0]
	if got := strings.Count(prompt, "INTERVIEWER: older question?"); got != 3 {
		t.Fatalf("window should hold 3 interviewer turns, got %d", got)
	}
	if got := strings.Count(prompt, "CANDIDATE: older answer"); got != 3 {
		t.Fatalf("window should hold 3 candidate turns, got %d", got)
	}
	if !strings.Contains(prompt, "=== RESUME ===") || !strings.Contains(prompt, "=== JOB DESCRIPTION ===") {
		t.Fatal("context block missing from prompt")
	}
}

func TestSetContextResetsSession(t *testing.T) {
	svc, clock := newTestInterview(&fakeSpeech{}, &fakeModel{})
	svc.StartInterview(15)
	clock.Advance(time.Minute)
	svc.State().Append(session.RoleCandidate, "old turn")

	svc.SetContext("new resume", "new job")

	if _, ok := svc.State().RemainingSeconds(); ok {
		t.Fatal("new context must start with an idle timer")
	}
	if svc.State().TurnCount() != 0 {
		t.Fatal("new context must start with an empty transcript")
	}
	if !strings.Contains(svc.State().Context(), "new resume") {
		t.Fatalf("context: %q", svc.State().Context())
	}
}

func TestStatusReporting(t *testing.T) {
	svc, clock := newTestInterview(&fakeSpeech{}, &fakeModel{})
	st := svc.Status()
	if st.RemainingSec != nil || st.Finished || st.CodingActive {
		t.Fatalf("fresh status: %+v", st)
	}

	svc.StartInterview(2)
	clock.Advance(30 * time.Second)
	st = svc.Status()
	if st.RemainingSec == nil || *st.RemainingSec != 90 {
		t.Fatalf("remaining: %+v", st.RemainingSec)
	}

	clock.Advance(2 * time.Minute)
	if st = svc.Status(); !st.Finished {
		t.Fatal("status must report finished after expiry")
	}
}
