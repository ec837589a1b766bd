package dto

import (
	"time"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// UserResponse is the wire shape for a user profile.
type UserResponse struct {
	ID              string         `json:"id"`
	PlatformID      string         `json:"platform_id"`
	Tag             string         `json:"tag"`
	VIPTier         domain.VIPTier `json:"vip_tier"`
	TotalSpentCents int64          `json:"total_spent_cents"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SetVIPTierRequest payload.
type SetVIPTierRequest struct {
	Tier int `json:"tier"`
}

// AuditEntryResponse is the wire shape for an audit log entry.
type AuditEntryResponse struct {
	ID         string             `json:"id"`
	Action     domain.AuditAction `json:"action"`
	ActorID    string             `json:"actor_id"`
	TargetType string             `json:"target_type"`
	TargetID   string             `json:"target_id"`
	Details    map[string]any     `json:"details,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}
