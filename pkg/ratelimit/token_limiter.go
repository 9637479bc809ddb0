package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// TokenLimiter budgets model tokens per minute.
type TokenLimiter struct {
	limiter *rate.Limiter
	burst   int
}

// NewTokenLimiter allows perMinute tokens per minute. perMinute <= 0 disables the limit.
func NewTokenLimiter(perMinute int) *TokenLimiter {
	if perMinute <= 0 {
		return &TokenLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &TokenLimiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		burst:   perMinute,
	}
}

// Wait blocks until n tokens are available. Requests larger than the per-minute budget wait
// for the full budget.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	if l.burst > 0 && n > l.burst {
		n = l.burst
	}
	if n <= 0 {
		return nil
	}
	return l.limiter.WaitN(ctx, n)
}

// GetRemaining returns the tokens currently available.
func (l *TokenLimiter) GetRemaining() int {
	if l.burst == 0 {
		return math.MaxInt
	}
	return int(l.limiter.Tokens())
}
