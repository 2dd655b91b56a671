package tts

import "context"

// Voice is one entry from the backend's synthesis catalog.
type Voice struct {
	Name      string   `json:"name"`
	Languages []string `json:"languages"`
}

// Provider wraps a synthesis backend. Synthesize may return empty bytes with
// a nil error when the backend produced no audio for the given voice.
type Provider interface {
	Synthesize(ctx context.Context, text, voiceName, languageCode string) ([]byte, error)
	ListVoices(ctx context.Context) ([]Voice, error)
	Close() error
}
