package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// AuthenticatedLimit is the hourly quota for token-authenticated
	// requests (5000/hour).
	AuthenticatedLimit = 5000

	// ProactiveRate is the proactive throttle rate (~1.2 req/sec = 4320/hr),
	// kept under the hourly quota so header-driven waits stay rare.
	ProactiveRate = 1.2

	// LowWater is the remaining-request count at which the limiter
	// stops issuing requests and waits for the window to reset.
	LowWater = 10

	// ResetMargin is added past the reported reset time so a clock
	// skewed a few seconds behind the API does not resume early.
	ResetMargin = 5 * time.Second

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter implements dual-strategy rate limiting for the GitHub API:
// a token bucket throttles proactively, and the X-RateLimit headers
// drive reactive waits when the quota runs low.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int       // From API header
	limit     int       // From API header
	resetTime time.Time // From API header
	bucket    *rate.Limiter
	lowWater  int
}

// NewRateLimiter creates a new rate limiter with proactive throttling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		remaining: AuthenticatedLimit, // Assume full quota initially
		limit:     AuthenticatedLimit,
		bucket:    rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		lowWater:  LowWater,
	}
}

// Wait blocks until it's safe to make a request. It waits on the token
// bucket first, then on the reported reset time if the remaining quota
// is below the low-water mark.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	wait := r.resetDelay(time.Now())
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// resetDelay returns how long a request issued at now must wait before
// the API quota allows it. Zero means no wait. Split out from Wait so
// the arithmetic is testable without sleeping.
func (r *RateLimiter) resetDelay(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remaining >= r.lowWater {
		return 0
	}
	if !now.Before(r.resetTime) {
		return 0
	}
	return r.resetTime.Sub(now) + ResetMargin
}

// SetRate adjusts the proactive throttle rate. rate.Inf disables it.
func (r *RateLimiter) SetRate(limit rate.Limit) {
	r.bucket.SetLimit(limit)
}

// UpdateFromResponse updates rate limit state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if remaining := resp.Header.Get(HeaderRateRemaining); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			r.remaining = val
		}
	}

	if limit := resp.Header.Get(HeaderRateLimit); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			r.limit = val
		}
	}

	if reset := resp.Header.Get(HeaderRateReset); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			r.resetTime = time.Unix(val, 0)
		}
	}
}

// CheckRateLimit checks if the response indicates rate limiting.
// Returns a RateLimitError if rate limited, nil otherwise.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	r.UpdateFromResponse(resp)

	// 429, or 403 with the quota exhausted, means throttled.
	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && r.Remaining() == 0) {
		r.mu.Lock()
		resetTime := r.resetTime
		remaining := r.remaining
		limit := r.limit
		r.mu.Unlock()

		if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				resetTime = time.Now().Add(time.Duration(seconds) * time.Second)
			}
		}

		return &RateLimitError{
			ResetAt:   resetTime,
			Remaining: remaining,
			Limit:     limit,
		}
	}

	return nil
}

// Remaining returns the current remaining requests.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the rate limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns the rate limit reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
