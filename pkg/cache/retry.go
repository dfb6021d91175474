package cache

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a backend failure as transient, such as a refused
// connection while Redis restarts.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryWithBackoff runs fn until it succeeds, fails permanently, or the
// attempts run out. The wait starts at delay and doubles after each
// transient failure.
func RetryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
