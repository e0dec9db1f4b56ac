// Package retry wraps a fallible operation with bounded attempts and
// exponential backoff. Both the generation worker and the photo validator use
// the same executor so retry discipline lives in exactly one place.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts bounds consecutive failures before giving up.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait after the first failed attempt; attempt n
	// waits baseDelay << (n-1) before attempt n+1.
	DefaultBaseDelay = time.Second
)

// ExhaustedError reports that every attempt failed. It wraps the last
// underlying error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// retryAfterer is implemented by provider errors that carry an explicit wait
// hint (e.g. a 429 with Retry-After). The hint overrides the computed backoff.
type retryAfterer interface {
	RetryAfter() time.Duration
}

// Executor retries an operation up to MaxAttempts times. The zero value is
// not usable; construct with New.
type Executor struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep performs the backoff wait; tests replace it with an instant
	// sleeper. Nil falls back to a timer that honors ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns an executor with the default attempt budget and backoff.
func New() *Executor {
	return &Executor{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Do runs op until it succeeds or the attempt budget is spent. A success on
// any attempt short-circuits the rest. Context cancellation during a backoff
// wait aborts immediately with the context error.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := e.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if attempt == attempts {
			break
		}
		sleep := e.Sleep
		if sleep == nil {
			sleep = sleepContext
		}
		if err := sleep(ctx, e.delay(attempt, last)); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: attempts, Last: last}
}

// Value runs op under the executor and returns its result.
func Value[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *Executor) delay(attempt int, err error) time.Duration {
	var ra retryAfterer
	if errors.As(err, &ra) {
		if hint := ra.RetryAfter(); hint > 0 {
			return hint
		}
	}
	base := e.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
