package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/commerce-desk/internal/config"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/repository"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// UserService manages customer rows and the VIP ladder.
type UserService struct {
	users  repository.UserRepository
	audits repository.AuditLogRepository
	vip    config.VIPConfig
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, audits repository.AuditLogRepository, vip config.VIPConfig) *UserService {
	return &UserService{users: users, audits: audits, vip: vip}
}

// Ensure creates the user row on first sight and refreshes the tag.
func (s *UserService) Ensure(ctx context.Context, platformID, tag string) (*domain.User, error) {
	user, err := s.users.Upsert(ctx, platformID, tag)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Get loads a user by platform id.
func (s *UserService) Get(ctx context.Context, platformID string) (*domain.User, error) {
	user, err := s.users.GetByPlatformID(ctx, platformID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// SetVIPTier raises a user's tier by admin action. Tiers never move down.
func (s *UserService) SetVIPTier(ctx context.Context, actor domain.Actor, platformID string, tier domain.VIPTier) (*domain.User, error) {
	if !actor.Has(domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("vip changes require admin capability")
	}
	if !domain.ValidVIPTier(tier) {
		return nil, apperrors.NewInvalidInput("invalid vip tier", map[string]any{"tier": int(tier)})
	}

	user, err := s.Get(ctx, platformID)
	if err != nil {
		return nil, err
	}
	if tier < user.VIPTier {
		return nil, apperrors.NewInvalidState("vip tier cannot be lowered", map[string]any{
			"current":   int(user.VIPTier),
			"requested": int(tier),
		})
	}

	updated, changed, err := s.users.RaiseVIPTier(ctx, user.ID, tier)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		s.appendAudit(ctx, actor.ID, updated, user.VIPTier)
	}
	return updated, nil
}

// AccrueSpend adds paid minor units to the user's lifetime total and
// auto-raises the VIP tier when a spend threshold is crossed.
func (s *UserService) AccrueSpend(ctx context.Context, userID string, cents int64) (*domain.User, error) {
	user, err := s.users.AddSpend(ctx, userID, cents)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	earned := s.tierForSpend(user.TotalSpentCents)
	if earned <= user.VIPTier {
		return user, nil
	}

	previous := user.VIPTier
	updated, changed, err := s.users.RaiseVIPTier(ctx, user.ID, earned)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if changed {
		s.appendAudit(ctx, "system", updated, previous)
	}
	return updated, nil
}

func (s *UserService) tierForSpend(totalCents int64) domain.VIPTier {
	tier := domain.VIPTierNone
	for candidate := domain.VIPTierSilver; candidate <= domain.VIPTierDiamond; candidate++ {
		threshold := s.vip.Threshold(int(candidate))
		if threshold < 0 || totalCents < threshold {
			break
		}
		tier = candidate
	}
	return tier
}

func (s *UserService) appendAudit(ctx context.Context, actorID string, user *domain.User, previous domain.VIPTier) {
	_ = s.audits.Append(ctx, &domain.AuditLogEntry{
		Action:     domain.AuditVIPChanged,
		ActorID:    actorID,
		TargetType: "user",
		TargetID:   user.ID,
		Details: map[string]any{
			"previous_tier": int(previous),
			"new_tier":      int(user.VIPTier),
		},
	})
}
