package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
)

// Operation is a call that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a call that returns a result and might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Policy holds retry configuration
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	// Wait sleeps between attempts; tests replace it to record delays
	Wait func(ctx context.Context, delay time.Duration) error
	Logger logger.Logger
}

// DefaultPolicy returns five attempts with 30s doubling backoff, retrying
// transient remote errors only.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 5,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Wait:        Wait,
		Logger:      logger.NewNopLogger(),
	}
}

// FromConfig builds a policy from the retry section of the run configuration
func FromConfig(cfg config.RetryConfig, log logger.Logger) *Policy {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	p.Backoff = &ExponentialBackoff{
		BaseDelay:  cfg.InitialDelay,
		MaxDelay:   cfg.MaxDelay,
		Multiplier: cfg.Multiplier,
	}
	p.Logger = logger.Component(log, "retry")
	return p
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errs.IsTransient(err)
}

// Do executes op until it succeeds, fails with a non-retryable error, or
// runs out of attempts. On exhaustion the last error is returned unchanged.
func (p *Policy) Do(ctx context.Context, op Operation) error {
	if p == nil {
		p = DefaultPolicy()
	}
	log := logger.OrNop(p.Logger)
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	wait := p.Wait
	if wait == nil {
		wait = Wait
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}

		if attempt >= maxAttempts {
			log.ErrorWithFields("retry attempts exhausted", map[string]interface{}{
				"attempts": attempt,
				"error":    err.Error(),
			})
			return err
		}

		delay := backoff.NextDelay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": maxAttempts,
		})

		if werr := wait(ctx, delay); werr != nil {
			log.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  werr.Error(),
			})
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, werr)
		}
	}
}

// DoValue executes an operation that returns a result with retry logic
func DoValue[T any](ctx context.Context, p *Policy, op OperationWithResult[T]) (T, error) {
	var result T

	err := p.Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})

	return result, err
}
