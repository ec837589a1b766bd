package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Upsert(ctx context.Context, platformID, tag string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPlatformID(ctx context.Context, platformID string) (*domain.User, error)
	// AddSpend atomically accrues paid minor units and returns the updated row.
	AddSpend(ctx context.Context, id string, cents int64) (*domain.User, error)
	// RaiseVIPTier lifts the tier if and only if it is currently lower.
	// Returns the row and whether it changed.
	RaiseVIPTier(ctx context.Context, id string, tier domain.VIPTier) (*domain.User, bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, platform_id, tag, vip_tier, total_spent_cents, created_at, updated_at`

func (r *userRepository) Upsert(ctx context.Context, platformID, tag string) (*domain.User, error) {
	const query = `
        INSERT INTO users (platform_id, tag)
        VALUES ($1, $2)
        ON CONFLICT (platform_id) DO UPDATE SET tag = EXCLUDED.tag, updated_at = NOW()
        RETURNING ` + userColumns
	return r.scanRow(r.pool.QueryRow(ctx, query, platformID, tag))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByPlatformID(ctx context.Context, platformID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE platform_id=$1`
	return r.scanRow(r.pool.QueryRow(ctx, query, platformID))
}

func (r *userRepository) AddSpend(ctx context.Context, id string, cents int64) (*domain.User, error) {
	const query = `
        UPDATE users SET total_spent_cents = total_spent_cents + $1, updated_at = NOW()
        WHERE id=$2
        RETURNING ` + userColumns
	return r.scanRow(r.pool.QueryRow(ctx, query, cents, id))
}

func (r *userRepository) RaiseVIPTier(ctx context.Context, id string, tier domain.VIPTier) (*domain.User, bool, error) {
	const query = `
        UPDATE users SET vip_tier = $1, updated_at = NOW()
        WHERE id=$2 AND vip_tier < $1
        RETURNING ` + userColumns
	user, err := r.scanRow(r.pool.QueryRow(ctx, query, tier, id))
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}
	// No row matched: either missing or already at/above the tier.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, false, getErr
	}
	return current, false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.PlatformID,
		&user.Tag,
		&user.VIPTier,
		&user.TotalSpentCents,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
