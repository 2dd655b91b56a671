package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/veydan/intervox/internal/audio"
	"github.com/veydan/intervox/internal/cache"
	"github.com/veydan/intervox/internal/observability"
	"github.com/veydan/intervox/internal/providers/stt"
	"github.com/veydan/intervox/internal/providers/tts"
	"github.com/veydan/intervox/internal/utils"
)

// ErrNoSpeech marks a recognition pass that heard nothing. Silence and noise
// are normal outcomes; callers degrade to an empty transcript instead of
// failing the turn.
var ErrNoSpeech = errors.New("no speech detected")

// maxSynthRunes caps TTS input; very long replies are truncated rather than
// refused.
const maxSynthRunes = 3000

const voiceCatalogKey = "tts:voices"

// Audio is one synthesized reply.
type Audio struct {
	Bytes []byte
	MIME  string
}

// SpeechService is the gateway in front of recognition and synthesis.
type SpeechService interface {
	Transcribe(ctx context.Context, audioBytes []byte, filenameHint string) (string, error)
	Synthesize(ctx context.Context, text, preferredVoice string) (*Audio, error)
	ListPremiumVoices(ctx context.Context) ([]string, error)
}

type SpeechConfig struct {
	STTLanguage   string
	TTSLanguage   string
	MaxAudioBytes int
	VoiceCacheTTL time.Duration
}

type speechService struct {
	stt        stt.Provider
	tts        tts.Provider
	transcoder audio.Transcoder
	voices     cache.Cache
	cfg        SpeechConfig
	log        *logrus.Logger
	metrics    *observability.Metrics
}

func NewSpeechService(sttP stt.Provider, ttsP tts.Provider, tr audio.Transcoder, voices cache.Cache, cfg SpeechConfig, log *logrus.Logger, m *observability.Metrics) SpeechService {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = 6 << 20
	}
	if cfg.VoiceCacheTTL <= 0 {
		cfg.VoiceCacheTTL = 10 * time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &speechService{stt: sttP, tts: ttsP, transcoder: tr, voices: voices, cfg: cfg, log: log, metrics: m}
}

// Transcribe sniffs, normalizes, and recognizes one discrete audio turn.
// Transcode failure degrades to the raw bytes; zero recognition results
// surface as ErrNoSpeech.
func (s *speechService) Transcribe(ctx context.Context, audioBytes []byte, filenameHint string) (string, error) {
	const op = "SpeechService.Transcribe"

	if len(audioBytes) == 0 {
		return "", utils.ES(utils.CodeInvalidArgument, utils.StageUpload, op, "empty audio bytes", nil)
	}

	sig := audio.DetectSignature(audioBytes)
	hint := formatHint(filenameHint, sig)
	s.log.WithFields(logrus.Fields{
		"signature": sig,
		"hint":      hint,
		"bytes":     len(audioBytes),
	}).Info("transcribe")

	wav := audioBytes
	if audio.NeedsTranscode(sig) {
		out, err := s.transcoder.Transcode(ctx, audioBytes, hint)
		if err != nil {
			// degrade to the raw bytes and let the backend try
			s.log.WithError(err).Warn("transcode failed, passing raw audio through")
			s.countTranscode("failed")
		} else {
			wav = out
			s.countTranscode("ok")
		}
	}

	if len(wav) > s.cfg.MaxAudioBytes {
		return "", utils.ES(utils.CodeTooLarge, utils.StageSTT, op,
			"audio too large for synchronous transcription; upload to object storage and use the async path", nil)
	}

	text, _, err := s.stt.Transcribe(ctx, wav, s.cfg.STTLanguage)
	if err != nil {
		return "", utils.ES(utils.CodeUnavailable, utils.StageSTT, op, "speech-to-text request failed", err)
	}
	if text == "" {
		return "", ErrNoSpeech
	}
	return strings.TrimSpace(text), nil
}

// Synthesize renders text with the preferred voice, falling back through up
// to five premium catalog voices before giving up.
func (s *speechService) Synthesize(ctx context.Context, text, preferredVoice string) (*Audio, error) {
	const op = "SpeechService.Synthesize"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.ES(utils.CodeInvalidArgument, utils.StageTTS, op, "empty synthesis text", nil)
	}
	if runes := []rune(text); len(runes) > maxSynthRunes {
		text = string(runes[:maxSynthRunes])
	}

	candidates := []string{preferredVoice}
	if names, err := s.ListPremiumVoices(ctx); err == nil {
		added := 0
		for _, n := range names {
			if n == "" || n == preferredVoice {
				continue
			}
			candidates = append(candidates, n)
			if added++; added == 5 {
				break
			}
		}
	}

	var lastErr error
	for i, voice := range candidates {
		out, err := s.tts.Synthesize(ctx, text, voice, s.cfg.TTSLanguage)
		if err != nil {
			lastErr = err
			continue
		}
		if len(out) > 0 {
			if i > 0 && s.metrics != nil {
				s.metrics.TTSFallbacks.Inc()
			}
			return &Audio{Bytes: out, MIME: "audio/mp3"}, nil
		}
	}

	return nil, utils.ES(utils.CodeUnavailable, utils.StageTTS, op, "synthesis produced no audio after all voice candidates", lastErr)
}

// ListPremiumVoices returns catalog voices whose name follows the premium
// ("Studio") convention and whose languages include the configured output
// language. The catalog is served from a short-TTL cache so synthesis does
// not hit ListVoices per call.
func (s *speechService) ListPremiumVoices(ctx context.Context) ([]string, error) {
	var names []string
	if s.voices != nil {
		if hit, err := s.voices.GetJSON(ctx, voiceCatalogKey, &names); err == nil && hit {
			return names, nil
		}
	}

	catalog, err := s.tts.ListVoices(ctx)
	if err != nil {
		return nil, err
	}

	names = names[:0]
	for _, v := range catalog {
		if !strings.Contains(v.Name, "Studio") {
			continue
		}
		if len(v.Languages) > 0 && !containsString(v.Languages, s.cfg.TTSLanguage) {
			continue
		}
		names = append(names, v.Name)
	}

	if s.voices != nil {
		if err := s.voices.SetJSON(ctx, voiceCatalogKey, names, s.cfg.VoiceCacheTTL); err != nil {
			s.log.WithError(err).Warn("voice catalog cache write failed")
		}
	}
	return names, nil
}

// FilterSpelledLetters discards transcripts that are mostly single-letter
// tokens ("s u b o d h"), a common artifact of the recognizer spelling out
// an unintelligible word. Transcripts under 3 characters are discarded too.
func FilterSpelledLetters(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return ""
	}

	toks := strings.Fields(text)
	singles := 0
	for _, tok := range toks {
		r := []rune(tok)
		if len(r) == 1 && unicode.IsLetter(r[0]) {
			singles++
		}
	}

	floor := 4
	if threshold := (6 * len(toks)) / 10; threshold > floor {
		floor = threshold
	}
	if len(toks) > 0 && singles >= floor {
		return ""
	}
	return text
}

func (s *speechService) countTranscode(outcome string) {
	if s.metrics != nil {
		s.metrics.Transcodes.WithLabelValues(outcome).Inc()
	}
}

func formatHint(filenameHint string, sig audio.Signature) string {
	n := strings.ToLower(filenameHint)
	switch {
	case strings.Contains(n, "webm"):
		return "webm"
	case strings.Contains(n, "ogg"):
		return "ogg"
	case strings.Contains(n, "mp3"):
		return "mp3"
	case strings.Contains(n, "wav"):
		return "wav"
	case strings.Contains(n, "mp4"), strings.Contains(n, "m4a"):
		return "mp4"
	}

	switch sig {
	case audio.SigOpus:
		// opus frames ride in an ogg container
		return "ogg"
	case audio.SigWebM, audio.SigOGG, audio.SigMP3, audio.SigMP4:
		return string(sig)
	default:
		return ""
	}
}

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
