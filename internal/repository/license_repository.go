package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// LicenseRepository encapsulates license persistence.
type LicenseRepository interface {
	Create(ctx context.Context, license *domain.License) error
	GetByKey(ctx context.Context, key string) (*domain.License, error)
	Revoke(ctx context.Context, key string) error
}

type licenseRepository struct {
	pool *pgxpool.Pool
}

// NewLicenseRepository instantiates repository.
func NewLicenseRepository(pool *pgxpool.Pool) LicenseRepository {
	return &licenseRepository{pool: pool}
}

func (r *licenseRepository) Create(ctx context.Context, license *domain.License) error {
	const query = `
        INSERT INTO licenses (key, user_id, sku, order_id)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		license.Key,
		license.UserID,
		license.SKU,
		license.OrderID,
	).Scan(&license.CreatedAt)
}

func (r *licenseRepository) GetByKey(ctx context.Context, key string) (*domain.License, error) {
	const query = `SELECT key, user_id, sku, order_id, revoked, created_at FROM licenses WHERE key=$1`
	var license domain.License
	if err := r.pool.QueryRow(ctx, query, key).Scan(
		&license.Key,
		&license.UserID,
		&license.SKU,
		&license.OrderID,
		&license.Revoked,
		&license.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *licenseRepository) Revoke(ctx context.Context, key string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE licenses SET revoked=TRUE WHERE key=$1`, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
