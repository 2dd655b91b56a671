package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the interview service.
type Config struct {
	BindAddr string

	// Google Cloud
	ProjectID string
	Location  string

	// LLM
	GeminiModel      string
	FeedbackModel    string
	UseVertexBilling bool // disables the per-minute call limiter
	MaxLLMPerMinute  int

	// Speech
	STTLanguage   string
	TTSLanguage   string
	VoiceName     string
	FFmpegPath    string
	MaxAudioBytes int

	// Coding window
	CodingWindow time.Duration

	// Feedback artifacts
	FeedbackDir    string
	FeedbackBucket string // optional GCS mirror, empty disables

	// Voice catalog cache
	RedisAddr     string // empty falls back to the in-process cache
	VoiceCacheTTL time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:        envOrDefault("APP_BIND_ADDR", ":8080"),
		ProjectID:       strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT")),
		Location:        envOrDefault("GOOGLE_CLOUD_LOCATION", "us-central1"),
		GeminiModel:     envOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		FeedbackModel:   strings.TrimSpace(os.Getenv("GEMINI_FEEDBACK_MODEL")),
		MaxLLMPerMinute: 2,
		STTLanguage:     envOrDefault("STT_LANGUAGE", "en-IN"),
		TTSLanguage:     envOrDefault("GOOGLE_TTS_LANGUAGE", "en-US"),
		VoiceName:       envOrDefault("VOICE_NAME", "en-US-Studio-Q"),
		FFmpegPath:      envOrDefault("FFMPEG_PATH", "ffmpeg"),
		MaxAudioBytes:   6 << 20,
		CodingWindow:    5 * time.Minute,
		FeedbackDir:     envOrDefault("FEEDBACK_DIR", "static/feedback"),
		FeedbackBucket:  strings.TrimSpace(os.Getenv("FEEDBACK_BUCKET")),
		RedisAddr:       strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		VoiceCacheTTL:   10 * time.Minute,
	}
	if cfg.FeedbackModel == "" {
		cfg.FeedbackModel = cfg.GeminiModel
	}

	var err error
	cfg.UseVertexBilling, err = boolFromEnv("USE_VERTEX_AI", cfg.UseVertexBilling)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxLLMPerMinute, err = intFromEnv("MAX_LLM_CALLS_PER_MINUTE", cfg.MaxLLMPerMinute)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxAudioBytes, err = intFromEnv("MAX_AUDIO_BYTES", cfg.MaxAudioBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.CodingWindow, err = durationFromEnv("CODING_WINDOW", cfg.CodingWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.VoiceCacheTTL, err = durationFromEnv("VOICE_CACHE_TTL", cfg.VoiceCacheTTL)
	if err != nil {
		return Config{}, err
	}

	if cfg.ProjectID == "" {
		return Config{}, fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
