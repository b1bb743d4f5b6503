// Package retry classifies errors as retryable or fatal and retries
// retryable operations with exponential backoff and jitter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

// rateLimitBackoff is the fixed backoff used for rate-limited errors,
// rather than the usual exponential schedule.
const rateLimitBackoff = 5 * time.Second

// Retryable reports whether an error's Kind is one the retry discipline
// considers transient: Network, Timeout, RateLimited, or Provider.
func Retryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindNetwork, apperr.KindTimeout, apperr.KindRateLimited, apperr.KindProvider:
		return true
	default:
		return false
	}
}

// Do runs fn, retrying on retryable errors with exponential backoff
// and jitter, up to maxAttempts total attempts. A RateLimited error
// uses a fixed backoff override instead of the exponential schedule.
// Fatal errors (Retryable == false) and the final exhausted attempt
// are returned to the caller immediately.
func Do(ctx context.Context, maxAttempts int, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	eb.MaxInterval = 10 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !Retryable(err) || attempt == maxAttempts {
			return err
		}

		wait := eb.NextBackOff()
		if apperr.KindOf(err) == apperr.KindRateLimited {
			wait = rateLimitBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
