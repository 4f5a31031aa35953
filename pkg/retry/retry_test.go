package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   4 * time.Millisecond,
	}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0

	out, err := Do(context.Background(), fastConfig(3), func(ctx context.Context) (string, error) {
		calls++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0

	out, err := Do(context.Background(), fastConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary failure")
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", out)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustedReturnsLastErrorVerbatim(t *testing.T) {
	calls := 0
	lastErr := errors.New("persistent failure")

	_, err := Do(context.Background(), fastConfig(2), func(ctx context.Context) (int, error) {
		calls++
		return 0, lastErr
	})

	assert.Equal(t, 3, calls) // first attempt + 2 retries
	// the last error comes back as-is, not wrapped
	assert.Same(t, lastErr, err)
}

func TestDo_NonRetryableStopsEarly(t *testing.T) {
	calls := 0
	cfg := fastConfig(5)
	cfg.Retryable = func(err error) bool { return false }

	_, err := Do(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryReportsEachFailedAttempt(t *testing.T) {
	var attempts []int
	var delays []time.Duration
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	_, err := Do(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
	// exponential growth capped at MaxDelay
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
}

func TestDo_CancelledContextAbortsBackoffWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := Config{MaxRetries: 3, BaseDelay: time.Minute}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	_, err := Do(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(started), time.Second)
}

func TestBackoff(t *testing.T) {
	base := time.Second
	max := 10 * time.Second

	assert.Equal(t, time.Second, Backoff(0, base, max))
	assert.Equal(t, 2*time.Second, Backoff(1, base, max))
	assert.Equal(t, 4*time.Second, Backoff(2, base, max))
	assert.Equal(t, 8*time.Second, Backoff(3, base, max))
	assert.Equal(t, 10*time.Second, Backoff(4, base, max))
	assert.Equal(t, 10*time.Second, Backoff(40, base, max))
}

func TestBackoff_NoCap(t *testing.T) {
	assert.Equal(t, 8*time.Second, Backoff(3, time.Second, 0))

	// doubling past the int64 range saturates instead of wrapping
	// around to a negative (and therefore immediate) delay
	saturated := Backoff(64, time.Hour, 0)
	assert.Equal(t, time.Duration(math.MaxInt64), saturated)
	assert.Positive(t, Backoff(40, time.Minute, 0))
}
