package domain

import "time"

// VIPTier is an ordinal customer classification, 0 (none) through 3.
// Tiers only move upward, whether raised by spend thresholds or by an admin.
type VIPTier int

const (
	VIPTierNone    VIPTier = 0
	VIPTierSilver  VIPTier = 1
	VIPTierGold    VIPTier = 2
	VIPTierDiamond VIPTier = 3
)

// ValidVIPTier reports whether t is within the configured ordinal range.
func ValidVIPTier(t VIPTier) bool {
	return t >= VIPTierNone && t <= VIPTierDiamond
}

// User is a customer identified by their chat-platform id.
// Rows are created lazily on first interaction.
type User struct {
	ID              string
	PlatformID      string
	Tag             string
	VIPTier         VIPTier
	TotalSpentCents int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
