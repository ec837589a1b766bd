package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// RefundRepository encapsulates refund persistence. Create relies on the
// refunds_one_outstanding_per_order index and surfaces ErrRefundOutstanding.
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	GetByID(ctx context.Context, id string) (*domain.Refund, error)
	GetOutstandingByOrder(ctx context.Context, orderID string) (*domain.Refund, error)
	SetStatus(ctx context.Context, id string, status domain.RefundStatus) error
}

type refundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository instantiates repository.
func NewRefundRepository(pool *pgxpool.Pool) RefundRepository {
	return &refundRepository{pool: pool}
}

const refundColumns = `id, order_id, amount_cents, currency, reason, status, processed_by, created_at, processed_at`

func (r *refundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	const query = `
        INSERT INTO refunds (order_id, amount_cents, currency, reason, status, processed_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		refund.OrderID,
		refund.AmountCents,
		refund.Currency,
		refund.Reason,
		refund.Status,
		refund.ProcessedByID,
	).Scan(&refund.ID, &refund.CreatedAt)
	return mapConstraint(err)
}

func (r *refundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	const query = `SELECT ` + refundColumns + ` FROM refunds WHERE id=$1`
	return scanRefund(r.pool.QueryRow(ctx, query, id))
}

func (r *refundRepository) GetOutstandingByOrder(ctx context.Context, orderID string) (*domain.Refund, error) {
	const query = `SELECT ` + refundColumns + ` FROM refunds
        WHERE order_id=$1 AND status IN ('requested','approved')`
	return scanRefund(r.pool.QueryRow(ctx, query, orderID))
}

func (r *refundRepository) SetStatus(ctx context.Context, id string, status domain.RefundStatus) error {
	processedAt := ""
	if status == domain.RefundStatusProcessed {
		processedAt = ", processed_at = NOW()"
	}
	query := `UPDATE refunds SET status=$1` + processedAt + ` WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRefund(row rowScanner) (*domain.Refund, error) {
	var refund domain.Refund
	if err := row.Scan(
		&refund.ID,
		&refund.OrderID,
		&refund.AmountCents,
		&refund.Currency,
		&refund.Reason,
		&refund.Status,
		&refund.ProcessedByID,
		&refund.CreatedAt,
		&refund.ProcessedAt,
	); err != nil {
		return nil, err
	}
	return &refund, nil
}
