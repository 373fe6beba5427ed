package llm

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/valpere/revtran/internal/logging"
)

const maxBackoff = 30 * time.Second

type retryModel struct {
	inner    Model
	attempts int
	delay    time.Duration
	log      *logging.Logger
}

// WithRetry retries transient failures of m up to attempts times in total,
// doubling delay after each failure. A Retry-After hint from the server
// takes precedence over the computed backoff.
func WithRetry(m Model, attempts int, delay time.Duration, log *logging.Logger) Model {
	if attempts <= 1 {
		return m
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &retryModel{inner: m, attempts: attempts, delay: delay, log: logging.OrNop(log)}
}

func (r *retryModel) Generate(ctx context.Context, system, user string) (string, error) {
	return r.do(ctx, func(ctx context.Context) (string, error) {
		return r.inner.Generate(ctx, system, user)
	})
}

func (r *retryModel) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	return r.do(ctx, func(ctx context.Context) (string, error) {
		return GenerateJSON(ctx, r.inner, system, user)
	})
}

func (r *retryModel) do(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	backoff := r.delay
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.attempts {
			break
		}

		sleepFor := jitter(backoff)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
			sleepFor = httpErr.RetryAfter
		}
		if sleepFor > maxBackoff {
			sleepFor = maxBackoff
		}

		r.log.Warn("model request retrying",
			"attempt", attempt,
			"max_attempts", r.attempts,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
	return "", lastErr
}

// IsRetryable reports whether err is transient. Cancellation and deadline
// errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := float64(base) * 0.2
	return time.Duration(float64(base) - delta + rand.Float64()*2*delta)
}
