package github

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDelay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no wait above low water", func(t *testing.T) {
		rl := NewRateLimiter()
		rl.remaining = LowWater
		rl.resetTime = now.Add(time.Minute)
		assert.Equal(t, time.Duration(0), rl.resetDelay(now))
	})

	t.Run("waits until reset plus margin", func(t *testing.T) {
		rl := NewRateLimiter()
		rl.remaining = LowWater - 1
		rl.resetTime = now.Add(42 * time.Second)
		assert.Equal(t, 42*time.Second+ResetMargin, rl.resetDelay(now))
	})

	t.Run("no wait when reset already passed", func(t *testing.T) {
		rl := NewRateLimiter()
		rl.remaining = 0
		rl.resetTime = now.Add(-time.Second)
		assert.Equal(t, time.Duration(0), rl.resetDelay(now))
	})
}

func TestUpdateFromResponse(t *testing.T) {
	rl := NewRateLimiter()
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "7")
	resp.Header.Set(HeaderRateLimit, "5000")
	resp.Header.Set(HeaderRateReset, "1767225600")

	rl.UpdateFromResponse(resp)

	assert.Equal(t, 7, rl.Remaining())
	assert.Equal(t, 5000, rl.Limit())
	assert.Equal(t, time.Unix(1767225600, 0), rl.ResetTime())
}

func TestUpdateFromResponseIgnoresGarbage(t *testing.T) {
	rl := NewRateLimiter()
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "lots")

	rl.UpdateFromResponse(resp)
	assert.Equal(t, AuthenticatedLimit, rl.Remaining())
}

func TestCheckRateLimit(t *testing.T) {
	t.Run("ok response", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{StatusCode: 200, Header: http.Header{}}
		assert.NoError(t, rl.CheckRateLimit(resp))
	})

	t.Run("429 with retry-after", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{StatusCode: 429, Header: http.Header{}}
		resp.Header.Set(HeaderRetryAfter, "30")

		err := rl.CheckRateLimit(resp)
		require.Error(t, err)
		var rlErr *RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.WithinDuration(t, time.Now().Add(30*time.Second), rlErr.ResetAt, 2*time.Second)
	})

	t.Run("403 with quota exhausted", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{StatusCode: 403, Header: http.Header{}}
		resp.Header.Set(HeaderRateRemaining, "0")

		assert.True(t, IsRateLimited(rl.CheckRateLimit(resp)))
	})

	t.Run("403 with quota left is not throttling", func(t *testing.T) {
		rl := NewRateLimiter()
		resp := &http.Response{StatusCode: 403, Header: http.Header{}}
		resp.Header.Set(HeaderRateRemaining, "100")

		assert.NoError(t, rl.CheckRateLimit(resp))
	})
}
