package stt

import "context"

// Provider runs one synchronous recognition pass over a discrete audio turn.
// An empty transcript with a nil error means the backend heard nothing.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
