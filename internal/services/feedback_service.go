package services

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/veydan/intervox/internal/artifacts"
	"github.com/veydan/intervox/internal/prompts"
	"github.com/veydan/intervox/internal/providers/llm"
	"github.com/veydan/intervox/internal/session"
	"github.com/veydan/intervox/internal/storage"
)

// spokenSummaryLimit caps the synthesized read-aloud excerpt of the report.
const spokenSummaryLimit = 600

const emptyTranscriptReport = "AI Feedback\n\nNo conversation captured, so there is nothing to evaluate. Start an interview and answer a few questions to receive feedback."

var (
	commRatingRe    = regexp.MustCompile(`(?i)Communication\s*&\s*Clarity[\s\S]*?Rating:\s*(\d+)/10`)
	techRatingRe    = regexp.MustCompile(`(?i)Technical\s*Depth\s*&\s*Problem\s*-?\s*Solving[\s\S]*?Rating:\s*(\d+)/10`)
	overallRatingRe = regexp.MustCompile(`(?i)Overall\s*Rating[\s\S]*?Overall:\s*(\d+)/10`)
)

// Ratings are the scores parsed out of the report text. A nil field means
// the section was missing or malformed.
type Ratings struct {
	Communication *int `json:"communication"`
	Technical     *int `json:"technical"`
	Overall       *int `json:"overall"`
}

// FeedbackReport is the finished artifact plus everything extracted from it.
type FeedbackReport struct {
	Text      string
	Ratings   Ratings
	LocalPath string
	RemoteURL string
	// Summary audio is best-effort, like every other synthesis.
	Audio *Audio
	Warn  string
}

type FeedbackConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// FeedbackComposer turns a finished session into a written report. It calls
// the model directly: a report does not go through the question-repair
// ladder or the turn rate limiter.
type FeedbackComposer struct {
	llm      llm.Provider
	speech   SpeechService
	store    *artifacts.Store
	uploader storage.Uploader
	cfg      FeedbackConfig
	log      *logrus.Logger
	voice    string
}

func NewFeedbackComposer(provider llm.Provider, speech SpeechService, store *artifacts.Store, uploader storage.Uploader, cfg FeedbackConfig, voice string, log *logrus.Logger) *FeedbackComposer {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1200
	}
	if log == nil {
		log = logrus.New()
	}
	return &FeedbackComposer{
		llm:      provider,
		speech:   speech,
		store:    store,
		uploader: uploader,
		cfg:      cfg,
		log:      log,
		voice:    voice,
	}
}

// Compose generates, normalizes, persists, and voices the report. It is a
// total operation: generation failure becomes the report text itself so the
// candidate always leaves with an artifact.
func (f *FeedbackComposer) Compose(ctx context.Context, state *session.State) *FeedbackReport {
	report := &FeedbackReport{}

	conversation := state.Conversation()
	if len(conversation) == 0 {
		report.Text = emptyTranscriptReport
	} else {
		text, err := f.llm.Generate(ctx, f.buildPrompt(state, conversation), llm.Options{
			Model:           f.cfg.Model,
			Temperature:     f.cfg.Temperature,
			MaxOutputTokens: f.cfg.MaxTokens,
		})
		if err != nil {
			f.log.WithError(err).Error("feedback generation failed")
			report.Text = "Failed to generate feedback: " + err.Error()
		} else {
			report.Text = normalizeTitle(text)
		}
	}

	report.Ratings = ExtractRatings(report.Text)
	f.persist(ctx, report)
	f.voiceSummary(ctx, report)
	return report
}

func (f *FeedbackComposer) buildPrompt(state *session.State, conversation []session.Turn) string {
	var b strings.Builder
	b.WriteString(prompts.FeedbackSystem)
	b.WriteString("\n\n")
	if ctx := state.Context(); ctx != "" {
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}
	b.WriteString("=== TRANSCRIPT ===\n")
	for _, turn := range conversation {
		label := "Candidate"
		if turn.Role == session.RoleInterviewer {
			label = "Interviewer"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nWrite the feedback document now.")
	return b.String()
}

func (f *FeedbackComposer) persist(ctx context.Context, report *FeedbackReport) {
	if f.store != nil {
		path, err := f.store.Save(report.Text)
		if err != nil {
			f.log.WithError(err).Warn("feedback not written to disk")
			report.Warn = appendWarn(report.Warn, "local save failed: "+err.Error())
		} else {
			report.LocalPath = path
		}
	}
	if f.uploader != nil && report.LocalPath != "" {
		object := filepath.Base(report.LocalPath)
		url, err := f.uploader.Upload(ctx, object, "text/plain; charset=utf-8", strings.NewReader(report.Text))
		if err != nil {
			f.log.WithError(err).Warn("feedback not mirrored to bucket")
			report.Warn = appendWarn(report.Warn, "upload failed: "+err.Error())
		} else {
			report.RemoteURL = url
		}
	}
}

// voiceSummary reads the first paragraph of the report aloud.
func (f *FeedbackComposer) voiceSummary(ctx context.Context, report *FeedbackReport) {
	if f.speech == nil {
		return
	}
	summary := firstParagraph(report.Text)
	if summary == "" {
		return
	}
	audio, err := f.speech.Synthesize(ctx, summary, f.voice)
	if err != nil {
		f.log.WithError(err).Warn("feedback summary synthesis failed")
		report.Warn = appendWarn(report.Warn, "summary audio failed: "+err.Error())
		return
	}
	report.Audio = audio
}

// ExtractRatings pulls the three Rating lines out of the report. Values
// outside 0..10 are treated as malformed.
func ExtractRatings(text string) Ratings {
	return Ratings{
		Communication: matchRating(commRatingRe, text),
		Technical:     matchRating(techRatingRe, text),
		Overall:       matchRating(overallRatingRe, text),
	}
}

func matchRating(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 0 || v > 10 {
		return nil
	}
	return &v
}

// normalizeTitle forces the canonical "AI Feedback" heading whatever the
// model produced, stripping markdown decoration around it.
func normalizeTitle(text string) string {
	text = strings.TrimSpace(text)
	lines := strings.SplitN(text, "\n", 2)
	first := strings.TrimSpace(strings.Trim(lines[0], "#* "))
	rest := ""
	if len(lines) == 2 {
		rest = strings.TrimLeft(lines[1], "\n")
	}
	if strings.EqualFold(first, "AI Feedback") {
		return "AI Feedback\n\n" + rest
	}
	return "AI Feedback\n\n" + text
}

// firstParagraph returns the lead section after the title, capped for
// synthesis.
func firstParagraph(text string) string {
	text = strings.TrimSpace(strings.TrimPrefix(text, "AI Feedback"))
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			if r := []rune(para); len(r) > spokenSummaryLimit {
				return string(r[:spokenSummaryLimit])
			}
			return para
		}
	}
	return ""
}

func appendWarn(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}
