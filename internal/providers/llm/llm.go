package llm

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Options are per-request generation knobs.
type Options struct {
	Model           string // empty uses the provider default
	Temperature     float32
	MaxOutputTokens int32
}

// Provider issues one blocking generation call per request.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Close() error
}

// IsQuota reports whether err is a quota/overload class failure, which is the
// only class worth a degraded retry.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429
	}
	return false
}
