package usecase

import (
	"context"
	"log/slog"
	"time"

	"conductor-ai/internal/domain"
)

// RetryPolicy controls Retry. Zero values fall back to three attempts,
// a one second initial delay and a backoff factor of two.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64

	// Retryable decides whether an error is worth another attempt.
	// Nil defaults to the error taxonomy's transient classification.
	Retryable func(err error) bool

	// Sleep waits between attempts. Nil uses a context-aware timer.
	// Tests substitute a recorder here.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2
	}
	if p.Retryable == nil {
		p.Retryable = func(err error) bool {
			ae, ok := domain.AsAgentError(err)
			return ok && ae.Retryable()
		}
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Retry runs fn with exponential backoff. MaxRetries bounds the total
// attempt count, so the last attempt's error returns without a final
// sleep. A rate limit error's retry-after hint overrides the computed
// delay for that wait only.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	p := policy.withDefaults()
	delay := p.InitialDelay

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !p.Retryable(err) {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			p.Logger.Warn("retries exhausted", "attempts", attempt, "error", err)
			return zero, err
		}

		wait := delay
		if ae, ok := domain.AsAgentError(err); ok && ae.RetryAfter > 0 {
			wait = ae.RetryAfter
		}
		p.Logger.Info("retrying after transient error", "attempt", attempt, "wait", wait, "error", err)
		if serr := p.Sleep(ctx, wait); serr != nil {
			return zero, serr
		}
		delay = time.Duration(float64(delay) * p.BackoffFactor)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
