package connectors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	// MaxRetries is the maximum number of attempts for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries; it doubles each
	// attempt.
	RetryDelay = time.Second
)

// StatusError is implemented by connector errors that carry an HTTP
// status code.
type StatusError interface {
	error
	HTTPStatus() int
}

// IsTransient reports whether an error is worth retrying: server-side
// failures, timeouts, and throttling. Client errors (4xx other than
// 429) are permanent and should be skipped, not retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se StatusError
	if errors.As(err, &se) {
		code := se.HTTPStatus()
		return code >= 500 || code == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Unclassified errors (connection resets, EOF mid-body) are
	// treated as transient.
	return true
}

// Retry runs fn up to MaxRetries times, doubling the delay after each
// transient failure. Permanent errors and context cancellation return
// immediately.
func Retry(ctx context.Context, fn func() error) error {
	delay := RetryDelay
	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
