package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBucket(rate float64, burst int) (*TokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tb := NewTokenBucket(rate, burst)
	tb.now = clock.now
	tb.Reset()
	return tb, clock
}

func TestTokenBucket(t *testing.T) {
	tb, clock := newTestBucket(2, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow(), "bucket should be empty")

	clock.advance(250 * time.Millisecond)
	assert.False(t, tb.Allow(), "half a token is not enough")

	clock.advance(250 * time.Millisecond)
	assert.True(t, tb.Allow())

	clock.advance(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow())
	}
	assert.False(t, tb.Allow(), "refill is capped at burst")

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(50, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, tb.Wait(ctx))
	require.NoError(t, tb.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(0.001, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, Unlimited{}, FromConfig(config.RateLimitConfig{}))
	assert.IsType(t, &TokenBucket{}, FromConfig(config.RateLimitConfig{RequestsPerSecond: 3, Burst: 1}))
}
