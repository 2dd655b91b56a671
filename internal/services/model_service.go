package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veydan/intervox/internal/observability"
	"github.com/veydan/intervox/internal/prompts"
	"github.com/veydan/intervox/internal/providers/llm"
)

// degradedSuffix turns the second attempt into a cheap, safe request.
const degradedSuffix = "\n\nAnswer in one short, safe sentence only."

// ModelService wraps the generation backend. Generate is total from the
// caller's perspective: it returns real content, a canned stalling reply
// when rate-limited, or an empty string meaning "use your fallback" - it
// never returns an error for ordinary failure classes.
type ModelService interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) string
}

type ModelConfig struct {
	Model string

	// MaxCallsPerMinute bounds calls in a rolling 60s window. Ignored when
	// LimiterDisabled is set (flat-rate billing mode).
	MaxCallsPerMinute int
	LimiterDisabled   bool

	// RetryWait is the pause before the degraded attempt after a quota
	// failure.
	RetryWait time.Duration
}

type modelService struct {
	provider llm.Provider
	cfg      ModelConfig
	log      *logrus.Logger
	metrics  *observability.Metrics

	limiter *slidingWindow

	// sleep is overridable in tests.
	sleep func(time.Duration)
}

func NewModelService(provider llm.Provider, cfg ModelConfig, log *logrus.Logger, m *observability.Metrics) ModelService {
	if cfg.MaxCallsPerMinute <= 0 {
		cfg.MaxCallsPerMinute = 2
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 900 * time.Millisecond
	}
	if log == nil {
		log = logrus.New()
	}
	return &modelService{
		provider: provider,
		cfg:      cfg,
		log:      log,
		metrics:  m,
		limiter:  newSlidingWindow(cfg.MaxCallsPerMinute, time.Minute),
		sleep:    time.Sleep,
	}
}

func (s *modelService) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int32) string {
	if !s.cfg.LimiterDisabled && !s.limiter.Allow() {
		s.count("rate_limited")
		return prompts.StallingReply
	}

	attempts := []struct {
		prompt      string
		temperature float32
		maxTokens   int32
	}{
		{prompt, temperature, maxTokens},
		{prompt + degradedSuffix, 0.2, 300},
	}

	for i, a := range attempts {
		txt, err := s.provider.Generate(ctx, a.prompt, llm.Options{
			Model:           s.cfg.Model,
			Temperature:     a.temperature,
			MaxOutputTokens: a.maxTokens,
		})
		if err == nil {
			if txt != "" {
				s.count("ok")
				return txt
			}
			// empty completion: fall through to the degraded attempt
			continue
		}

		if llm.IsQuota(err) && i == 0 {
			s.log.WithError(err).Warn("llm quota exhausted, retrying degraded")
			s.count("quota")
			s.sleep(s.cfg.RetryWait)
			continue
		}

		// non-quota failures abort immediately: the caller has a fallback
		s.log.WithError(err).Error("llm generate failed")
		s.count("error")
		return ""
	}

	s.count("empty")
	return ""
}

func (s *modelService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.LLMCalls.WithLabelValues(outcome).Inc()
	}
}

// slidingWindow is a leaky-bucket-by-timestamp limiter over a rolling
// window. It carries its own lock: the limiter is process-wide state and
// must stay correct even if the host ever stops serializing turns.
type slidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	calls  []time.Time

	// now is overridable in tests.
	now func() time.Time
}

func newSlidingWindow(max int, window time.Duration) *slidingWindow {
	return &slidingWindow{max: max, window: window, now: time.Now}
}

// Allow records the call when permitted and reports whether it may proceed.
func (w *slidingWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	keep := w.calls[:0]
	for _, t := range w.calls {
		if now.Sub(t) <= w.window {
			keep = append(keep, t)
		}
	}
	w.calls = keep

	if len(w.calls) >= w.max {
		return false
	}
	w.calls = append(w.calls, now)
	return true
}
