package ratelimit

import (
	"context"
	"sync"
	"time"

	"gagsync/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a call may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a call may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter
	Reset()
}

// TokenBucket refills continuously at rate tokens per second up to burst
type TokenBucket struct {
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
	mu     sync.Mutex
}

// NewTokenBucket creates a bucket allowing rate calls per second with the given burst
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	tb := &TokenBucket{
		rate:  rate,
		burst: float64(burst),
		now:   time.Now,
	}
	tb.tokens = tb.burst
	tb.last = tb.now()
	return tb
}

// FromConfig builds the catalog limiter. A non-positive rate disables limiting.
func FromConfig(cfg config.RateLimitConfig) Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(cfg.RequestsPerSecond, cfg.Burst)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tb.Allow() {
			return nil
		}

		timer := time.NewTimer(tb.untilNextToken())
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.burst
	tb.last = tb.now()
}

func (tb *TokenBucket) untilNextToken() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	missing := 1 - tb.tokens
	if missing <= 0 || tb.rate <= 0 {
		return time.Millisecond
	}
	return time.Duration(missing / tb.rate * float64(time.Second))
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.last).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.burst {
		tb.tokens = tb.burst
	}
	tb.last = now
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool { return true }

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

func (Unlimited) Reset() {}
