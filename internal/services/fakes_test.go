package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veydan/intervox/internal/providers/llm"
	"github.com/veydan/intervox/internal/providers/tts"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeLLM replays scripted outcomes in order and records every prompt.
type fakeLLM struct {
	replies []string
	errs    []error
	prompts []string
	opts    []llm.Options
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, err
}

func (f *fakeLLM) Close() error { return nil }

// fakeModel implements ModelService with scripted replies.
type fakeModel struct {
	replies []string
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string, _ float32, _ int32) string {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.replies) {
		return f.replies[i]
	}
	return ""
}

// fakeSpeech implements SpeechService around canned values.
type fakeSpeech struct {
	transcript    string
	transcribeErr error
	synthErr      error
	synthCalls    []string
}

func (f *fakeSpeech) Transcribe(context.Context, []byte, string) (string, error) {
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.transcript, nil
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, _ string) (*Audio, error) {
	f.synthCalls = append(f.synthCalls, text)
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &Audio{Bytes: []byte("mp3:" + text), MIME: "audio/mp3"}, nil
}

func (f *fakeSpeech) ListPremiumVoices(context.Context) ([]string, error) { return nil, nil }

// fakeSTT returns one fixed recognition result.
type fakeSTT struct {
	text string
	err  error
	got  []byte
}

func (f *fakeSTT) Transcribe(_ context.Context, audio []byte, _ string) (string, float64, error) {
	f.got = audio
	return f.text, 0.9, f.err
}

func (f *fakeSTT) Close() error { return nil }

// fakeTTS fails for every voice in failFor and synthesizes otherwise.
type fakeTTS struct {
	failFor map[string]bool
	voices  []tts.Voice
	used    []string
}

func (f *fakeTTS) Synthesize(_ context.Context, text, voiceName, _ string) ([]byte, error) {
	f.used = append(f.used, voiceName)
	if f.failFor[voiceName] {
		return nil, errors.New("voice rejected")
	}
	return []byte(voiceName + ":" + text), nil
}

func (f *fakeTTS) ListVoices(context.Context) ([]tts.Voice, error) { return f.voices, nil }

func (f *fakeTTS) Close() error { return nil }

// passthroughTranscoder satisfies audio.Transcoder without invoking ffmpeg.
type passthroughTranscoder struct{ err error }

func (p passthroughTranscoder) Transcode(_ context.Context, in []byte, _ string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return in, nil
}

// fakeClock steps time manually for limiter and session tests.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
