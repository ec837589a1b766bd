package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBlocksWithinWindow(t *testing.T) {
	limiter := NewMemoryLimiter(10 * time.Second)
	ctx := context.Background()

	ok, err := limiter.Acquire(ctx, "ticket_create", "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Acquire(ctx, "ticket_create", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiterIsPerActorAndCommand(t *testing.T) {
	limiter := NewMemoryLimiter(10 * time.Second)
	ctx := context.Background()

	ok, _ := limiter.Acquire(ctx, "ticket_create", "user-1")
	require.True(t, ok)

	ok, _ = limiter.Acquire(ctx, "ticket_create", "user-2")
	assert.True(t, ok, "different actor should not share a cooldown")

	ok, _ = limiter.Acquire(ctx, "refund_request", "user-1")
	assert.True(t, ok, "different command should not share a cooldown")
}

func TestMemoryLimiterAllowsAfterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(10 * time.Second)
	ctx := context.Background()

	ok, _ := limiter.Acquire(ctx, "ticket_create", "user-1")
	require.True(t, ok)

	limiter.now = func() time.Time { return time.Now().Add(11 * time.Second) }
	ok, err := limiter.Acquire(ctx, "ticket_create", "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterDisabledWindowAlwaysGrants(t *testing.T) {
	// window<=0 means cooldowns are off; the key must never reach redis,
	// where a zero TTL would persist it and block the actor forever.
	limiter := NewRedisLimiter(nil, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Acquire(ctx, "ticket_create", "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestMemoryLimiterDisabledWindowAlwaysGrants(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Acquire(ctx, "ticket_create", "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
