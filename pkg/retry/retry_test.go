package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
)

// recordingPolicy returns the default policy with waits recorded instead of slept.
func recordingPolicy() (*Policy, *[]time.Duration) {
	var delays []time.Duration
	p := DefaultPolicy()
	p.Wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return p, &delays
}

func transient(msg string) error {
	return errs.New(errs.ErrorTypeTransient, "%s", msg)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDefaultBackoffSchedule(t *testing.T) {
	b := DefaultExponentialBackoff()
	got := []time.Duration{b.NextDelay(1), b.NextDelay(2), b.NextDelay(3), b.NextDelay(4)}
	assert.Equal(t, []time.Duration{
		30 * time.Second, 60 * time.Second, 120 * time.Second, 240 * time.Second,
	}, got)
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestSucceedsOnFifthAttempt(t *testing.T) {
	p, delays := recordingPolicy()
	attempts := 0

	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 5 {
			return transient("catalog unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, []time.Duration{
		30 * time.Second, 60 * time.Second, 120 * time.Second, 240 * time.Second,
	}, *delays)
}

func TestExhaustionReturnsLastError(t *testing.T) {
	p, delays := recordingPolicy()
	attempts := 0
	var last error

	err := p.Do(context.Background(), func(context.Context) error {
		attempts++
		last = transient("still down")
		return last
	})

	require.Error(t, err)
	assert.Same(t, last, err)
	assert.True(t, errs.IsTransient(err))
	assert.Equal(t, 5, attempts)
	assert.Len(t, *delays, 4)
}

func TestNonRetryableErrorsBypassRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"schema", errs.New(errs.ErrorTypeSchema, "missing property")},
		{"duplicate", errs.New(errs.ErrorTypeDuplicate, "two records")},
		{"plain", errors.New("validation failed")},
		{"cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, delays := recordingPolicy()
			attempts := 0

			err := p.Do(context.Background(), func(context.Context) error {
				attempts++
				return tt.err
			})

			assert.Same(t, tt.err, err)
			assert.Equal(t, 1, attempts)
			assert.Empty(t, *delays)
		})
	}
}

func TestContextCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultPolicy()
	attempts := 0

	err := p.Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return transient("boom")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestOnRetryAndLogging(t *testing.T) {
	p, _ := recordingPolicy()
	testLog := logger.NewTestLogger()
	p.Logger = testLog
	p.MaxAttempts = 3

	var seen []int
	p.OnRetry = func(attempt int, _ error, _ time.Duration) {
		seen = append(seen, attempt)
	}

	_ = p.Do(context.Background(), func(context.Context) error {
		return transient("flaky")
	})

	assert.Equal(t, []int{1, 2}, seen)
	assert.Len(t, testLog.GetMessagesByLevel("WARN"), 2)
	assert.True(t, testLog.HasMessage("retry attempts exhausted"))
}

func TestDoValue(t *testing.T) {
	p, _ := recordingPolicy()
	attempts := 0

	result, err := DoValue(context.Background(), p, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", transient("temporary")
		}
		return "page-id", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "page-id", result)
	assert.Equal(t, 2, attempts)
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   3,
		MaxDelay:     5 * time.Second,
	}, nil)

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Backoff.NextDelay(1))
	assert.Equal(t, 3*time.Second, p.Backoff.NextDelay(2))
	assert.Equal(t, 5*time.Second, p.Backoff.NextDelay(3))
}
