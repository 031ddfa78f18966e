package federalregister

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// DefaultBurst is the token bucket burst size.
	DefaultBurst = 1
)

// RateLimiter throttles requests to the Federal Register API.
// It uses a token bucket for proactive throttling and honours any
// Retry-After backoff recorded from previous responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained.
// A non-positive rate disables proactive throttling.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, DefaultBurst),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRetryAfter.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRetryAfter pushes back the next allowed request by d.
func (r *RateLimiter) RecordRetryAfter(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if at := time.Now().Add(d); at.After(r.retryAt) {
		r.retryAt = at
	}
}

// ParseRetryAfter reads the Retry-After header as delta-seconds or an
// HTTP date. Returns 0 if absent or unparseable.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
