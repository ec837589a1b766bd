package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// Action names the destructive operation a confirmation guards.
type Action string

const (
	ActionCloseTicket   Action = "close_ticket"
	ActionProcessRefund Action = "process_refund"
)

// Pending is the state captured when a confirmation is requested. The
// requester is bound to the token: only they may complete the action.
type Pending struct {
	Action      Action `json:"action"`
	TargetID    string `json:"targetId"`
	RequesterID string `json:"requesterId"`
	AmountCents int64  `json:"amountCents,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Store issues one-shot confirmation tokens. Consuming a token removes it,
// so a confirmation can never be replayed.
type Store interface {
	Issue(ctx context.Context, pending Pending) (string, error)
	Consume(ctx context.Context, token string) (Pending, error)
}

const keyPrefix = "confirm:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Store backed by redis with per-token TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Issue(ctx context.Context, pending Pending) (string, error) {
	payload, err := json.Marshal(pending)
	if err != nil {
		return "", err
	}
	token := uuid.New().String()
	if err := s.client.Set(ctx, keyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *redisStore) Consume(ctx context.Context, token string) (Pending, error) {
	var pending Pending
	payload, err := s.client.GetDel(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return pending, apperrors.NewInvalidState("confirmation expired or already used", nil)
	}
	if err != nil {
		return pending, err
	}
	if err := json.Unmarshal(payload, &pending); err != nil {
		return pending, err
	}
	return pending, nil
}
