package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

type memoryEntry struct {
	pending Pending
	expires time.Time
}

// MemoryStore is a process-local Store used in tests and single-node
// deployments without redis.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an in-process Store with per-token TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Issue(_ context.Context, pending Pending) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New().String()
	s.entries[token] = memoryEntry{pending: pending, expires: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	if !ok || s.now().After(entry.expires) {
		return Pending{}, apperrors.NewInvalidState("confirmation expired or already used", nil)
	}
	return entry.pending, nil
}
