package retry

import (
	"context"
	"math"
	"time"
)

// Config controls the backoff behavior of Do.
type Config struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times.
	MaxRetries int
	// BaseDelay is the delay before the first retry; each further retry
	// doubles it.
	BaseDelay time.Duration
	// MaxDelay caps the computed delay. Zero means no cap.
	MaxDelay time.Duration
	// Retryable decides whether a failure is worth another attempt.
	// Nil retries every error.
	Retryable func(err error) bool
	// OnRetry is called before each backoff wait with the 1-based attempt
	// number that just failed. It must not block for long.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig mirrors the service-wide retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Do runs op with exponential backoff. It returns the first successful
// result, or the last error verbatim once attempts are exhausted or the
// error is not retryable. The backoff wait is a suspension point: it
// parks the goroutine without blocking other in-flight work, and a
// cancelled ctx aborts the wait immediately.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			break
		}

		delay := Backoff(attempt, cfg.BaseDelay, cfg.MaxDelay)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// Backoff computes min(base * 2^attempt, max) for a 0-indexed attempt.
// The delay saturates instead of overflowing, with or without a cap.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		if max > 0 && d >= max {
			return max
		}
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
