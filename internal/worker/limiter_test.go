package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10, 5)
	assert.Equal(t, 5, l.defaultBurst)
	assert.Equal(t, rate.Limit(10), l.defaultRate)

	l = NewLimiter(0, -1)
	assert.Equal(t, 1, l.defaultBurst)
	assert.Equal(t, rate.Inf, l.defaultRate)
}

func TestLimiter_PerKey(t *testing.T) {
	l := NewLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "openai"))

	assert.Error(t, waitBriefly(l, "openai"), "bucket for openai is empty")
	assert.NoError(t, waitBriefly(l, "anthropic"), "other keys have their own bucket")
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "ollama"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "ollama"))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		require.NoError(t, waitBriefly(l, "any"))
	}
}

func waitBriefly(l *Limiter, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, key)
}
