package audio

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Signature identifies an audio container/codec from its leading bytes,
// without decoding the stream.
type Signature string

const (
	SigEmpty   Signature = "empty"
	SigDataURI Signature = "data-uri"
	SigMP3     Signature = "mp3"
	SigWAV     Signature = "wav"
	SigOGG     Signature = "ogg"
	SigOpus    Signature = "opus"
	SigWebM    Signature = "webm"
	SigMP4     Signature = "mp4"
	SigUnknown Signature = "unknown"
)

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// DetectSignature sniffs the first 64 bytes for known magic markers.
func DetectSignature(b []byte) Signature {
	if len(b) == 0 {
		return SigEmpty
	}
	head := b
	if len(head) > 64 {
		head = head[:64]
	}

	switch {
	case bytes.HasPrefix(head, []byte("data:")):
		return SigDataURI
	case bytes.HasPrefix(head, []byte("ID3")),
		len(head) >= 2 && head[0] == 0xFF && (head[1] == 0xFB || head[1] == 0xF3 || head[1] == 0xF2):
		return SigMP3
	case bytes.HasPrefix(head, []byte("RIFF")):
		return SigWAV
	case bytes.HasPrefix(head, []byte("OggS")):
		return SigOGG
	case bytes.Contains(head, []byte("OpusHead")):
		return SigOpus
	case bytes.Contains(head, ebmlMagic):
		return SigWebM
	case bytes.Contains(head, []byte("ftyp")):
		return SigMP4
	default:
		return SigUnknown
	}
}

// NeedsTranscode reports whether the sniffed payload is compressed or
// ambiguous and should be normalized to PCM before recognition.
func NeedsTranscode(sig Signature) bool {
	switch sig {
	case SigWebM, SigOGG, SigMP3, SigOpus, SigMP4, SigDataURI, SigUnknown:
		return true
	default:
		return false
	}
}

// DecodeDataURI strips a data: header up to the first comma and base64-decodes
// the remainder.
func DecodeDataURI(b []byte) ([]byte, error) {
	i := bytes.IndexByte(b, ',')
	if i < 0 {
		return nil, fmt.Errorf("data uri: missing comma separator")
	}
	out, err := base64.StdEncoding.DecodeString(string(b[i+1:]))
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return out, nil
}
