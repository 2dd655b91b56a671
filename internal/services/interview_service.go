package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veydan/intervox/internal/docs"
	"github.com/veydan/intervox/internal/observability"
	"github.com/veydan/intervox/internal/prompts"
	"github.com/veydan/intervox/internal/session"
	"github.com/veydan/intervox/internal/utils"
)

// contextWindow bounds the transcript slice sent to the model. Six turns
// trades long-range memory for a bounded prompt.
const contextWindow = 6

// navigationPhrases force an "ask the next question" turn regardless of
// what else the candidate said.
var navigationPhrases = []string{
	"next question", "go to next", "move on", "skip", "ask next",
}

// TurnResult is the outcome of one conversational turn. Text and audio are
// decoupled: Audio may be nil with Warn set while AssistantText is still
// valid, so the interview can continue text-only for a turn.
type TurnResult struct {
	UserText      string
	AssistantText string
	Audio         *Audio
	AudioID       string
	TurnID        int
	Finished      bool
	Warn          string
}

// Status is a point-in-time view of the session for polling clients.
type Status struct {
	RemainingSec    *int
	Finished        bool
	CodingActive    bool
	CodingRemaining *int
}

type InterviewConfig struct {
	VoiceName    string
	CodingWindow time.Duration
}

// InterviewService drives turns end-to-end over a single session. It holds
// no lock: the host must serialize calls that touch the session (the API
// layer takes one exclusive lock per request).
type InterviewService struct {
	state   *session.State
	speech  SpeechService
	model   ModelService
	cfg     InterviewConfig
	log     *logrus.Logger
	metrics *observability.Metrics

	preferredVoice string
}

func NewInterviewService(state *session.State, speech SpeechService, model ModelService, cfg InterviewConfig, log *logrus.Logger, m *observability.Metrics) *InterviewService {
	if cfg.CodingWindow <= 0 {
		cfg.CodingWindow = 5 * time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &InterviewService{
		state:          state,
		speech:         speech,
		model:          model,
		cfg:            cfg,
		log:            log,
		metrics:        m,
		preferredVoice: cfg.VoiceName,
	}
}

// State exposes the session for the feedback flow and the host layer.
func (s *InterviewService) State() *session.State { return s.state }

func (s *InterviewService) Voice() string         { return s.preferredVoice }
func (s *InterviewService) SetVoice(voice string) { s.preferredVoice = voice }

// SetContext swaps in a fresh session around the new resume/job block. The
// old timer and transcript belong to the old context.
func (s *InterviewService) SetContext(resume, job string) {
	s.state.Reset()
	s.state.SetContext(resume, job)
}

// SetContextFromDocuments extracts text from uploaded files, falling back to
// a size/filename placeholder when extraction yields nothing.
func (s *InterviewService) SetContextFromDocuments(resumeData []byte, resumeName string, jobData []byte, jobName string) (resumeLen, jobLen int) {
	resume := docs.ExtractText(resumeData, resumeName)
	if resume == "" && len(resumeData) > 0 {
		resume = docs.Placeholder("resume", resumeName, len(resumeData))
	}
	job := docs.ExtractText(jobData, jobName)
	if job == "" && len(jobData) > 0 {
		job = docs.Placeholder("job description", jobName, len(jobData))
	}
	s.state.Reset()
	s.state.SetContext(resume, job)
	return len(resume), len(job)
}

// StartInterview starts (or restarts) the main timer.
func (s *InterviewService) StartInterview(minutes int) {
	s.state.StartTimer(minutes)
}

func (s *InterviewService) Finish() { s.state.Finish() }

func (s *InterviewService) Status() Status {
	st := Status{
		Finished:     s.state.Finished() || s.state.TimeUp(),
		CodingActive: s.state.CodingActive(),
	}
	if rem, ok := s.state.RemainingSeconds(); ok {
		st.RemainingSec = &rem
	}
	if rem, ok := s.state.CodingRemaining(); ok {
		sec := int(rem.Seconds())
		st.CodingRemaining = &sec
	}
	return st
}

// VoiceTurn runs one candidate turn: transcribe, decide intent, generate,
// repair, synthesize, record.
func (s *InterviewService) VoiceTurn(ctx context.Context, audioBytes []byte, filenameHint string) (*TurnResult, error) {
	const op = "InterviewService.VoiceTurn"

	if len(audioBytes) == 0 {
		return nil, utils.ES(utils.CodeInvalidArgument, utils.StageUpload, op, "empty audio upload", nil)
	}

	if s.state.TimeUp() {
		return s.wrapUp(ctx, ""), nil
	}

	start := time.Now()
	userText, err := s.speech.Transcribe(ctx, audioBytes, filenameHint)
	if err != nil {
		switch {
		case err == ErrNoSpeech:
			userText = ""
		case utils.IsCode(err, utils.CodeInvalidArgument), utils.IsCode(err, utils.CodeTooLarge):
			return nil, err
		default:
			// recognition trouble is never worth losing the turn over
			s.log.WithError(err).Warn("transcription degraded to empty")
			userText = ""
		}
	}
	userText = FilterSpelledLetters(userText)
	s.observe("stt", start)

	// An empty turn still advances the transcript: it tells the model no
	// discernible speech arrived.
	s.state.Append(session.RoleCandidate, userText)

	if s.state.TimeUp() {
		return s.wrapUp(ctx, userText), nil
	}

	var reply string
	start = time.Now()
	if forceNextQuestion(userText) {
		reply = s.model.Generate(ctx, s.buildPrompt(prompts.AskNext), 0.3, 400)
	} else {
		reply = s.model.Generate(ctx, s.buildPrompt(prompts.ReactAndAsk), 0.7, 300)
	}
	reply = s.repairReply(ctx, reply)
	s.observe("llm", start)

	s.state.Append(session.RoleInterviewer, reply)

	res := &TurnResult{UserText: userText, AssistantText: reply}
	s.attachAudio(ctx, res)
	s.countTurn("voice")
	return res, nil
}

// NextQuestion produces an interviewer turn with no candidate input.
func (s *InterviewService) NextQuestion(ctx context.Context) (*TurnResult, error) {
	if s.state.TimeUp() {
		return s.wrapUp(ctx, ""), nil
	}

	instruction := prompts.AskNext
	if s.state.TurnCount() == 0 {
		instruction = prompts.Greeting
	}

	start := time.Now()
	reply := s.model.Generate(ctx, s.buildPrompt(instruction), 0.7, 400)
	reply = s.repairReply(ctx, reply)
	s.observe("llm", start)

	s.state.Append(session.RoleInterviewer, reply)

	res := &TurnResult{AssistantText: reply}
	s.attachAudio(ctx, res)
	s.countTurn("next_question")
	return res, nil
}

// wrapUp closes the session with the fixed line. The transcript content of
// the triggering turn does not matter once time is up.
func (s *InterviewService) wrapUp(ctx context.Context, userText string) *TurnResult {
	s.state.Finish()
	s.state.Append(session.RoleInterviewer, prompts.WrapUpLine)

	res := &TurnResult{UserText: userText, AssistantText: prompts.WrapUpLine, Finished: true}
	s.attachAudio(ctx, res)
	s.countTurn("wrap_up")
	return res
}

// repairReply runs the validation ladder over the model output.
func (s *InterviewService) repairReply(ctx context.Context, reply string) string {
	stages := []repairStage{
		{prompts.MustEndQuestion, func(r string) bool { return r != "" && hasQuestionMark(r) }},
		{prompts.AntiFiller, isSubstantial},
	}
	return runRepairLadder(reply, stages, prompts.FallbackQuestion, func(instruction string) string {
		return s.model.Generate(ctx, s.buildPrompt(instruction), 0.3, 400)
	})
}

// buildPrompt assembles system instructions, the context block, the sliding
// transcript window, and the turn-specific instruction.
func (s *InterviewService) buildPrompt(instruction string) string {
	parts := []string{prompts.Interviewer}
	if ctx := s.state.Context(); ctx != "" {
		parts = append(parts, "\n"+ctx+"\n")
	}
	parts = append(parts, "=== CONVERSATION ===")
	for _, turn := range s.state.LastTurns(contextWindow) {
		parts = append(parts, strings.ToUpper(string(turn.Role))+": "+turn.Text)
	}
	parts = append(parts, "\n"+instruction)
	return strings.Join(parts, "\n")
}

// attachAudio synthesizes the reply best-effort. Failure never rolls back
// the text turn.
func (s *InterviewService) attachAudio(ctx context.Context, res *TurnResult) {
	start := time.Now()
	audioOut, err := s.speech.Synthesize(ctx, res.AssistantText, s.preferredVoice)
	s.observe("tts", start)

	res.TurnID = s.state.NextTurnID()
	if err != nil {
		s.log.WithError(err).Warn("synthesis failed, returning text-only turn")
		res.Warn = err.Error()
		return
	}

	sum := sha1.Sum(audioOut.Bytes)
	res.Audio = audioOut
	res.AudioID = hex.EncodeToString(sum[:])
	s.state.SetAudioFingerprint(res.AudioID)
}

func (s *InterviewService) observe(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, time.Since(start))
	}
}

func (s *InterviewService) countTurn(kind string) {
	if s.metrics != nil {
		s.metrics.Turns.WithLabelValues(kind).Inc()
	}
}

func forceNextQuestion(userText string) bool {
	if len(userText) < 3 {
		return true
	}
	lt := strings.ToLower(strings.TrimSpace(userText))
	for _, p := range navigationPhrases {
		if strings.Contains(lt, p) {
			return true
		}
	}
	return false
}
