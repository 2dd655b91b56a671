package tts

import (
	"context"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

type GoogleTTS struct {
	c *texttospeech.Client

	SpeakingRate float64
	Pitch        float64
}

func NewGoogleTTS(ctx context.Context, opts ...option.ClientOption) (*GoogleTTS, error) {
	c, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleTTS{c: c, SpeakingRate: 1.0, Pitch: 0.0}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

// Synthesize renders text as MP3 with the given voice. voiceName may be empty
// to let the backend pick any voice for the language.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, voiceName, languageCode string) ([]byte, error) {
	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voiceName,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_MP3,
			SpeakingRate:  g.SpeakingRate,
			Pitch:         g.Pitch,
		},
	}

	resp, err := g.c.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.GetAudioContent(), nil
}

func (g *GoogleTTS) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := g.c.ListVoices(ctx, &ttspb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}

	out := make([]Voice, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		out = append(out, Voice{
			Name:      v.GetName(),
			Languages: v.GetLanguageCodes(),
		})
	}
	return out, nil
}
