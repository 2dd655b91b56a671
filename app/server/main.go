package main

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/veydan/intervox/config"
	"github.com/veydan/intervox/internal/api/handlers"
	"github.com/veydan/intervox/internal/api/middleware"
	"github.com/veydan/intervox/internal/api/routes"
	"github.com/veydan/intervox/internal/artifacts"
	"github.com/veydan/intervox/internal/audio"
	"github.com/veydan/intervox/internal/cache"
	"github.com/veydan/intervox/internal/logger"
	"github.com/veydan/intervox/internal/observability"
	"github.com/veydan/intervox/internal/providers/llm"
	"github.com/veydan/intervox/internal/providers/stt"
	"github.com/veydan/intervox/internal/providers/tts"
	"github.com/veydan/intervox/internal/services"
	"github.com/veydan/intervox/internal/session"
	"github.com/veydan/intervox/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	// Google Cloud clients
	sttClient, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.Fatalf("speech client: %v", err)
	}
	defer sttClient.Close()

	ttsClient, err := tts.NewGoogleTTS(ctx)
	if err != nil {
		log.Fatalf("tts client: %v", err)
	}
	defer ttsClient.Close()

	llmClient, err := llm.NewVertexGemini(ctx, cfg.ProjectID, cfg.Location, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("vertex client: %v", err)
	}
	defer llmClient.Close()

	// Voice catalog cache: Redis when configured, in-process otherwise.
	var voiceCache cache.Cache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb, err := config.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-process voice cache")
		} else {
			defer rdb.Close()
			voiceCache = cache.NewRedisCache(rdb)
			log.Info("redis connected")
		}
	}

	// Optional GCS mirror for feedback artifacts.
	var uploader storage.Uploader
	if cfg.FeedbackBucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, cfg.FeedbackBucket)
		if err != nil {
			log.WithError(err).Warn("gcs unavailable, feedback stays local-only")
		} else {
			defer gcs.Close()
			uploader = gcs
		}
	}

	metrics := observability.NewMetrics("intervox")
	transcoder := audio.NewFFmpegTranscoder(cfg.FFmpegPath, 16000, log)

	speechSvc := services.NewSpeechService(sttClient, ttsClient, transcoder, voiceCache, services.SpeechConfig{
		STTLanguage:   cfg.STTLanguage,
		TTSLanguage:   cfg.TTSLanguage,
		MaxAudioBytes: cfg.MaxAudioBytes,
		VoiceCacheTTL: cfg.VoiceCacheTTL,
	}, log, metrics)

	modelSvc := services.NewModelService(llmClient, services.ModelConfig{
		Model:             cfg.GeminiModel,
		MaxCallsPerMinute: cfg.MaxLLMPerMinute,
		LimiterDisabled:   cfg.UseVertexBilling,
	}, log, metrics)

	interviewSvc := services.NewInterviewService(session.New(), speechSvc, modelSvc, services.InterviewConfig{
		VoiceName:    cfg.VoiceName,
		CodingWindow: cfg.CodingWindow,
	}, log, metrics)

	composer := services.NewFeedbackComposer(llmClient, speechSvc, artifacts.NewStore(cfg.FeedbackDir), uploader, services.FeedbackConfig{
		Model: cfg.FeedbackModel,
	}, cfg.VoiceName, log)

	// One lock serializes every session-touching request.
	var mu sync.Mutex

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Interview: handlers.NewInterviewHandler(interviewSvc, &mu),
		Coding:    handlers.NewCodingHandler(interviewSvc, &mu),
		Feedback:  handlers.NewFeedbackHandler(composer, interviewSvc, &mu),
		Voice:     handlers.NewVoiceHandler(interviewSvc, speechSvc, &mu),
		Metrics:   observability.MetricsHandler(),
	})

	log.WithField("addr", cfg.BindAddr).Info("server starting")
	if err := r.Run(cfg.BindAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
