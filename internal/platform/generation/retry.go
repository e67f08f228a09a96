package generation

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries a call on retryable failures with exponential
// backoff and jitter. It is independent of the HTTP client so the attempt
// count and delay schedule are testable without network calls.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts, including the first
	BackoffBase time.Duration // Delay before the first retry; doubles each retry

	// sleep is replaceable in tests; defaults to a context-aware wait
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a policy with the given attempt budget
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BackoffBase: backoffBase,
		sleep:       sleepCtx,
	}
}

// Do runs fn until it succeeds, fails terminally, or the attempt budget is
// exhausted. Each attempt is independent; no state carries between them.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return retryableErr("context cancelled before attempt", err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}

		if attempt < p.MaxAttempts-1 {
			if err := p.sleep(ctx, p.delay(attempt)); err != nil {
				return retryableErr("context cancelled during backoff", err)
			}
		}
	}
	return lastErr
}

// delay computes the backoff before the retry following the given attempt:
// base doubled per retry, plus up to 50% jitter.
func (p *RetryPolicy) delay(attempt int) time.Duration {
	backoff := p.BackoffBase << uint(attempt)
	jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))
	return backoff + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
