package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             20 * time.Millisecond,
		HalfOpenMaxRequests: 1,
	}
}

func TestExecute_PassesThroughWhileClosed(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	calls := 0

	for i := 0; i < 5; i++ {
		err := cb.Execute(func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, calls)
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	boom := errors.New("boom")
	calls := 0
	fail := func() error {
		calls++
		return boom
	}

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)

	// threshold reached: the next call is rejected without running fn
	assert.ErrorIs(t, cb.Execute(fail), ErrCircuitBreakerOpen)
	assert.Equal(t, 2, calls)
}

func TestExecute_SuccessfulProbeClosesAgain(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	boom := errors.New("boom")

	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)

	time.Sleep(25 * time.Millisecond)

	// half-open: the probe runs and succeeds, then traffic flows again
	probed := false
	require.NoError(t, cb.Execute(func() error {
		probed = true
		return nil
	}))
	assert.True(t, probed)
	require.NoError(t, cb.Execute(func() error { return nil }))
}

func TestExecute_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	boom := errors.New("boom")

	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)

	time.Sleep(25 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)
}
