package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"
)

// TranscodeError wraps the last decoder failure after every attempt was
// exhausted. Callers may swallow it and pass the original bytes through,
// accepting degraded recognition quality.
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string { return fmt.Sprintf("transcode: %v", e.Err) }
func (e *TranscodeError) Unwrap() error { return e.Err }

// Transcoder normalizes arbitrary audio payloads to mono 16-bit PCM WAV.
type Transcoder interface {
	Transcode(ctx context.Context, input []byte, formatHint string) ([]byte, error)
}

// FFmpegTranscoder shells out to ffmpeg. Decoding is attempted in-memory via
// pipes first; some demuxers (notably mp4) need a seekable input, so the last
// resort writes a temp file and decodes from disk.
type FFmpegTranscoder struct {
	Path       string
	SampleRate int
	Log        *logrus.Logger

	// run is swappable in tests; nil uses the real ffmpeg binary.
	run func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)
}

func NewFFmpegTranscoder(path string, sampleRate int, log *logrus.Logger) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if log == nil {
		log = logrus.New()
	}
	return &FFmpegTranscoder{Path: path, SampleRate: sampleRate, Log: log}
}

var formatExt = map[string]string{
	"webm": ".webm",
	"ogg":  ".ogg",
	"mp3":  ".mp3",
	"mp4":  ".mp4",
	"wav":  ".wav",
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, input []byte, formatHint string) ([]byte, error) {
	if len(input) == 0 {
		return nil, &TranscodeError{Err: fmt.Errorf("empty audio bytes")}
	}

	if bytes.HasPrefix(input, []byte("data:")) {
		decoded, err := DecodeDataURI(input)
		if err != nil {
			return nil, &TranscodeError{Err: err}
		}
		input = decoded
	}

	// First attempt honors the hint ("" lets ffmpeg autodetect), then an
	// ordered ladder of plausible formats, then the temp-file fallback.
	var lastErr error
	tried := map[string]bool{}
	candidates := []string{formatHint, "webm", "ogg", "mp3", "mp4", "wav"}
	for _, fmtName := range candidates {
		if tried[fmtName] {
			continue
		}
		tried[fmtName] = true

		out, err := t.decodePipe(ctx, input, fmtName)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}

	out, err := t.decodeTempFile(ctx, input, formatHint)
	if err == nil {
		return out, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, &TranscodeError{Err: lastErr}
}

func (t *FFmpegTranscoder) decodePipe(ctx context.Context, input []byte, format string) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args, "-i", "pipe:0")
	args = append(args, t.outputArgs()...)
	args = append(args, "-f", "wav", "pipe:1")
	return t.exec(ctx, input, args...)
}

func (t *FFmpegTranscoder) decodeTempFile(ctx context.Context, input []byte, formatHint string) ([]byte, error) {
	suffix := formatExt[formatHint]
	if suffix == "" {
		suffix = ".bin"
	}
	tmp, err := os.CreateTemp("", "intervox-*"+suffix)
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(input); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if formatHint != "" {
		args = append(args, "-f", formatHint)
	}
	args = append(args, "-i", path)
	args = append(args, t.outputArgs()...)
	args = append(args, "-f", "wav", "pipe:1")
	return t.exec(ctx, nil, args...)
}

func (t *FFmpegTranscoder) outputArgs() []string {
	return []string{"-ac", "1", "-ar", strconv.Itoa(t.SampleRate), "-c:a", "pcm_s16le"}
}

func (t *FFmpegTranscoder) exec(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	if t.run != nil {
		return t.run(ctx, stdin, args...)
	}

	cmd := exec.CommandContext(ctx, t.Path, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return nil, fmt.Errorf("ffmpeg: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg: produced no output")
	}
	return stdout.Bytes(), nil
}
