package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// NewLimiter returns a token bucket shared by every model call of a process.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

type limitedModel struct {
	inner   Model
	limiter *rate.Limiter
}

// RateLimited waits on limiter before every call to m.
func RateLimited(m Model, limiter *rate.Limiter) Model {
	if limiter == nil || limiter.Limit() == rate.Inf {
		return m
	}
	return &limitedModel{inner: m, limiter: limiter}
}

func (l *limitedModel) Generate(ctx context.Context, system, user string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return l.inner.Generate(ctx, system, user)
}

func (l *limitedModel) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return GenerateJSON(ctx, l.inner, system, user)
}
