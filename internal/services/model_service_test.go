package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veydan/intervox/internal/prompts"
)

func newTestModelService(provider *fakeLLM, cfg ModelConfig) (*modelService, *fakeClock, *[]time.Duration) {
	svc := NewModelService(provider, cfg, testLogger(), nil).(*modelService)
	clock := newFakeClock()
	svc.limiter.now = clock.Now
	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }
	return svc, clock, &slept
}

func TestModelServiceRateLimitStalls(t *testing.T) {
	provider := &fakeLLM{replies: []string{"q1?", "q2?", "q3?"}}
	svc, clock, _ := newTestModelService(provider, ModelConfig{MaxCallsPerMinute: 2})

	ctx := context.Background()
	if got := svc.Generate(ctx, "p", 0.7, 300); got != "q1?" {
		t.Fatalf("first call: %q", got)
	}
	if got := svc.Generate(ctx, "p", 0.7, 300); got != "q2?" {
		t.Fatalf("second call: %q", got)
	}
	if got := svc.Generate(ctx, "p", 0.7, 300); got != prompts.StallingReply {
		t.Fatalf("third call within window should stall, got %q", got)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("stalled turn must not reach the backend, saw %d calls", len(provider.prompts))
	}

	// window rolls over and calls flow again
	clock.Advance(61 * time.Second)
	if got := svc.Generate(ctx, "p", 0.7, 300); got != "q3?" {
		t.Fatalf("after window: %q", got)
	}
}

func TestModelServiceLimiterDisabled(t *testing.T) {
	provider := &fakeLLM{replies: []string{"a?", "b?", "c?"}}
	svc, _, _ := newTestModelService(provider, ModelConfig{MaxCallsPerMinute: 2, LimiterDisabled: true})

	ctx := context.Background()
	for _, want := range []string{"a?", "b?", "c?"} {
		if got := svc.Generate(ctx, "p", 0.5, 200); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestModelServiceQuotaRetriesDegraded(t *testing.T) {
	provider := &fakeLLM{
		errs:    []error{status.Error(codes.ResourceExhausted, "quota"), nil},
		replies: []string{"", "short safe sentence?"},
	}
	svc, _, slept := newTestModelService(provider, ModelConfig{LimiterDisabled: true})

	got := svc.Generate(context.Background(), "original prompt", 0.7, 300)
	if got != "short safe sentence?" {
		t.Fatalf("got %q", got)
	}
	if len(*slept) != 1 || (*slept)[0] != 900*time.Millisecond {
		t.Fatalf("expected one 900ms wait, got %v", *slept)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(provider.prompts))
	}
	if !strings.HasSuffix(provider.prompts[1], "Answer in one short, safe sentence only.") {
		t.Fatalf("degraded attempt must carry the safe-sentence suffix: %q", provider.prompts[1])
	}
	if provider.opts[1].Temperature != 0.2 || provider.opts[1].MaxOutputTokens != 300 {
		t.Fatalf("degraded attempt knobs wrong: %+v", provider.opts[1])
	}
}

func TestModelServiceNonQuotaErrorAborts(t *testing.T) {
	provider := &fakeLLM{errs: []error{errors.New("backend exploded")}}
	svc, _, slept := newTestModelService(provider, ModelConfig{LimiterDisabled: true})

	if got := svc.Generate(context.Background(), "p", 0.7, 300); got != "" {
		t.Fatalf("non-quota failure must return empty, got %q", got)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("must not retry non-quota failures, saw %d calls", len(provider.prompts))
	}
	if len(*slept) != 0 {
		t.Fatalf("must not wait on non-quota failures")
	}
}

func TestModelServiceEmptyCompletionsFallThrough(t *testing.T) {
	provider := &fakeLLM{replies: []string{"", ""}}
	svc, _, _ := newTestModelService(provider, ModelConfig{LimiterDisabled: true})

	if got := svc.Generate(context.Background(), "p", 0.7, 300); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("empty completion should trigger the degraded attempt, saw %d calls", len(provider.prompts))
	}
}
