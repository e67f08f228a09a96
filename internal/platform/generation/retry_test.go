package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPolicy(maxAttempts int) (*RetryPolicy, *[]time.Duration) {
	delays := &[]time.Duration{}
	p := NewRetryPolicy(maxAttempts, 100*time.Millisecond)
	p.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p, delays
}

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	p, delays := newTestPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestRetryPolicy_RetriesRetryableUntilSuccess(t *testing.T) {
	p, delays := newTestPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return retryableErr("temporarily unavailable", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *delays, 2)
}

func TestRetryPolicy_StopsOnTerminal(t *testing.T) {
	p, delays := newTestPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return terminalErr(400, "bad request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, FailureTerminal, gerr.Kind)
}

func TestRetryPolicy_ExhaustsBudget(t *testing.T) {
	p, delays := newTestPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return retryableErr("still failing", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *delays, 2)
	assert.True(t, Retryable(err))
}

func TestRetryPolicy_BackoffDoubles(t *testing.T) {
	p, delays := newTestPolicy(4)

	_ = p.Do(context.Background(), func(ctx context.Context) error {
		return retryableErr("still failing", nil)
	})

	require.Len(t, *delays, 3)
	base := 100 * time.Millisecond
	for i, d := range *delays {
		expected := base << uint(i)
		assert.GreaterOrEqual(t, d, expected, "delay %d below backoff floor", i)
		assert.Less(t, d, expected+expected/2+time.Millisecond, "delay %d above jitter ceiling", i)
	}
}

func TestRetryPolicy_CancelledContext(t *testing.T) {
	p, _ := newTestPolicy(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicy_CancelledDuringBackoff(t *testing.T) {
	p := NewRetryPolicy(3, 100*time.Millisecond)
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.DeadlineExceeded
	}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return retryableErr("temporarily unavailable", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, FailureRetryable, classifyStatus(429).Kind)
	assert.Equal(t, FailureRetryable, classifyStatus(500).Kind)
	assert.Equal(t, FailureRetryable, classifyStatus(503).Kind)
	assert.Equal(t, FailureTerminal, classifyStatus(400).Kind)
	assert.Equal(t, FailureTerminal, classifyStatus(403).Kind)
	assert.Equal(t, FailureTerminal, classifyStatus(422).Kind)
}
