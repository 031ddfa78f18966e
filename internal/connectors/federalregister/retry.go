package federalregister

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// backoff computes bounded exponential delays.
type backoff struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// delay returns the wait before retry number attempt (1-based):
// baseDelay * 2^(attempt-1), at least the server's Retry-After, capped at
// maxDelay.
func (b backoff) delay(attempt int, retryAfter time.Duration) time.Duration {
	d := b.baseDelay
	for i := 1; i < attempt && d < b.maxDelay; i++ {
		d *= 2
	}
	if retryAfter > d {
		d = retryAfter
	}
	if b.maxDelay > 0 && d > b.maxDelay {
		d = b.maxDelay
	}
	return d
}

// do runs op until it succeeds, fails with a non-transient error, or
// maxRetries retries are exhausted. The last transient error is returned
// when retries run out.
func (b backoff) do(ctx context.Context, what string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			var te *domain.TransientFetchError
			var retryAfter time.Duration
			if errors.As(lastErr, &te) {
				retryAfter = te.RetryAfter
			}
			wait := b.delay(attempt, retryAfter)
			logger.Debug("Retrying %s in %s (attempt %d/%d): %v", what, wait, attempt, b.maxRetries, lastErr)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !domain.IsTransient(lastErr) {
			return lastErr
		}
	}

	logger.Warn("Giving up on %s after %d retries: %v", what, b.maxRetries, lastErr)
	return lastErr
}
