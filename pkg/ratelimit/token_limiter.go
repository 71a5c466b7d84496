package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenLimiter caps how many model tokens may be spent per minute.
type TokenLimiter struct {
	limiter *rate.Limiter
	max     int
}

// NewTokenLimiter creates a limiter that refills maxPerMinute tokens every minute.
// A non-positive value disables limiting.
func NewTokenLimiter(maxPerMinute int) *TokenLimiter {
	if maxPerMinute <= 0 {
		return &TokenLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &TokenLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute),
		max:     maxPerMinute,
	}
}

// Wait blocks until n tokens are available. Requests larger than the bucket are
// clamped so a single oversized prompt waits for a full bucket instead of failing.
func (t *TokenLimiter) Wait(ctx context.Context, n int) error {
	if t.max == 0 {
		return nil
	}
	if n > t.max {
		n = t.max
	}
	if n <= 0 {
		return nil
	}
	return t.limiter.WaitN(ctx, n)
}

// GetRemaining returns the tokens currently available.
func (t *TokenLimiter) GetRemaining() int {
	if t.max == 0 {
		return -1
	}
	return int(t.limiter.Tokens())
}
