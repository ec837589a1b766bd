package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// OrderRepository encapsulates order persistence. The session reference is
// unique and MarkPaidBySession is a compare-and-swap on status, which
// together give the at-most-once paid transition.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	// MarkPaidBySession flips a pending order to paid and records the
	// settled payment intent. Returns the updated row, or false when no
	// pending order matched (unknown session or already processed).
	MarkPaidBySession(ctx context.Context, sessionID, paymentIntentID string) (*domain.Order, bool, error)
	// SetStatus applies a terminal bookkeeping status (failed, refunded).
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// SetLicenseKey records the license issued for a paid deliverable.
	SetLicenseKey(ctx context.Context, id, key string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, user_id, kind, sku, quote_id, amount_cents, currency, status, session_id, payment_intent_id, deliverable_file, license_key, created_at, updated_at, paid_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (user_id, kind, sku, quote_id, amount_cents, currency, status, session_id, deliverable_file)
        VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		order.UserID,
		order.Kind,
		order.SKU,
		order.QuoteID,
		order.AmountCents,
		order.Currency,
		order.Status,
		order.SessionID,
		order.DeliverableFile,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	return mapConstraint(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE session_id=$1`
	return scanOrder(r.pool.QueryRow(ctx, query, sessionID))
}

func (r *orderRepository) MarkPaidBySession(ctx context.Context, sessionID, paymentIntentID string) (*domain.Order, bool, error) {
	const query = `
        UPDATE orders SET status='paid', payment_intent_id=$2, paid_at=NOW(), updated_at=NOW()
        WHERE session_id=$1 AND status='pending'
        RETURNING ` + orderColumns
	order, err := scanOrder(r.pool.QueryRow(ctx, query, sessionID, paymentIntentID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return order, true, nil
}

func (r *orderRepository) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) SetLicenseKey(ctx context.Context, id, key string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE orders SET license_key=$1, updated_at=NOW() WHERE id=$2`, key, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order   domain.Order
		quoteID *string
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Kind,
		&order.SKU,
		&quoteID,
		&order.AmountCents,
		&order.Currency,
		&order.Status,
		&order.SessionID,
		&order.PaymentIntentID,
		&order.DeliverableFile,
		&order.LicenseKey,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PaidAt,
	); err != nil {
		return nil, err
	}
	if quoteID != nil {
		order.QuoteID = *quoteID
	}
	return &order, nil
}
