package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLimiterBudget(t *testing.T) {
	l := NewTokenLimiter(600)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, 500))
	assert.LessOrEqual(t, l.GetRemaining(), 100)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(short, 600), "waiting for a full budget should not fit in the deadline")
}

func TestTokenLimiterUnlimited(t *testing.T) {
	l := NewTokenLimiter(0)
	require.NoError(t, l.Wait(context.Background(), 1_000_000))
	assert.Equal(t, math.MaxInt, l.GetRemaining())
}
