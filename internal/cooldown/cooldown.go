package cooldown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter rate-limits command invocations per actor. Acquire returns false
// while the actor's previous invocation is still cooling down.
type Limiter interface {
	Acquire(ctx context.Context, command, actorID string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisLimiter builds a Limiter shared across instances via redis.
func NewRedisLimiter(client *redis.Client, window time.Duration) Limiter {
	return &redisLimiter{client: client, window: window}
}

func (l *redisLimiter) Acquire(ctx context.Context, command, actorID string) (bool, error) {
	// A non-positive window disables the cooldown. Passing 0 through would
	// make SetNX persist the key without expiry, locking the actor out.
	if l.window <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("cooldown:%s:%s", command, actorID)
	return l.client.SetNX(ctx, key, 1, l.window).Result()
}

// MemoryLimiter is a process-local Limiter for tests and single-node
// deployments without redis.
type MemoryLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewMemoryLimiter builds an in-process Limiter.
func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Acquire(_ context.Context, command, actorID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := command + ":" + actorID
	if at, ok := l.last[key]; ok && l.now().Sub(at) < l.window {
		return false, nil
	}
	l.last[key] = l.now()
	return true, nil
}
