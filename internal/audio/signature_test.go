package audio

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDetectSignature(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Signature
	}{
		{"empty", nil, SigEmpty},
		{"id3 mp3", []byte("ID3\x03\x00"), SigMP3},
		{"mpeg frame sync fb", []byte{0xFF, 0xFB, 0x90}, SigMP3},
		{"mpeg frame sync f3", []byte{0xFF, 0xF3, 0x90}, SigMP3},
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), SigWAV},
		{"ogg", []byte("OggS\x00\x02"), SigOGG},
		{"opus head", []byte("OpusHead\x01"), SigOpus},
		{"webm ebml", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}, SigWebM},
		{"mp4 ftyp", []byte("\x00\x00\x00\x18ftypmp42"), SigMP4},
		{"data uri", []byte("data:audio/mp3;base64,AAA"), SigDataURI},
		{"garbage", []byte("hello world"), SigUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectSignature(tt.in); got != tt.want {
				t.Fatalf("DetectSignature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeDataURI(t *testing.T) {
	payload := []byte("OggS\x00\x02sample")
	uri := []byte("data:audio/ogg;base64," + base64.StdEncoding.EncodeToString(payload))

	got, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("DecodeDataURI() = %q, want %q", got, payload)
	}
	// decoded payload must be sniffable again
	if sig := DetectSignature(got); sig != SigOGG {
		t.Fatalf("DetectSignature(decoded) = %q, want %q", sig, SigOGG)
	}
}

func TestDecodeDataURIMissingComma(t *testing.T) {
	if _, err := DecodeDataURI([]byte("data:audio/ogg;base64")); err == nil {
		t.Fatalf("DecodeDataURI() error = nil, want error")
	}
}

func TestNeedsTranscode(t *testing.T) {
	for _, sig := range []Signature{SigWebM, SigOGG, SigMP3, SigOpus, SigMP4, SigDataURI, SigUnknown} {
		if !NeedsTranscode(sig) {
			t.Fatalf("NeedsTranscode(%q) = false, want true", sig)
		}
	}
	for _, sig := range []Signature{SigWAV, SigEmpty} {
		if NeedsTranscode(sig) {
			t.Fatalf("NeedsTranscode(%q) = true, want false", sig)
		}
	}
}
