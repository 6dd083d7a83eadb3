package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolitenessSpacesRequests(t *testing.T) {
	delay := 50 * time.Millisecond
	limiter := NewPoliteness(delay)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	elapsed := time.Since(start)

	// First request is immediate, the next two wait one delay each
	assert.GreaterOrEqual(t, elapsed, 2*delay-5*time.Millisecond)
}

func TestPolitenessAllow(t *testing.T) {
	limiter := NewPoliteness(time.Hour)

	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	limiter.Reset()
	assert.True(t, limiter.Allow())
}

func TestPolitenessZeroDelay(t *testing.T) {
	limiter := NewPoliteness(0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow())
	}
	assert.Equal(t, time.Duration(0), limiter.Delay())
}

func TestPolitenessWaitCancelled(t *testing.T) {
	limiter := NewPoliteness(time.Hour)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx))
}

func TestPolitenessImplementsLimiter(t *testing.T) {
	var _ Limiter = NewPoliteness(time.Second)
}
