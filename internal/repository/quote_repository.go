package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// QuoteRepository encapsulates quote persistence. Status changes go through
// compare-and-swap updates so accepted/rejected stay terminal under races.
type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) error
	GetByID(ctx context.Context, id string) (*domain.Quote, error)
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Quote, error)
	// DecideIfPending moves a pending quote to accepted or rejected.
	// Returns the updated row, or false when the quote was not pending.
	DecideIfPending(ctx context.Context, id string, next domain.QuoteStatus) (*domain.Quote, bool, error)
	// SupersedePending rejects every still-pending quote on the ticket and
	// returns the ids it touched.
	SupersedePending(ctx context.Context, ticketID string) ([]string, error)
}

type quoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository instantiates repository.
func NewQuoteRepository(pool *pgxpool.Pool) QuoteRepository {
	return &quoteRepository{pool: pool}
}

const quoteColumns = `id, ticket_id, amount_cents, deposit_cents, currency, description, status, created_at, accepted_at, expires_at`

func (r *quoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	const query = `
        INSERT INTO quotes (ticket_id, amount_cents, deposit_cents, currency, description, status, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		quote.TicketID,
		quote.AmountCents,
		quote.DepositCents,
		quote.Currency,
		quote.Description,
		quote.Status,
		quote.ExpiresAt,
	).Scan(&quote.ID, &quote.CreatedAt)
}

func (r *quoteRepository) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	const query = `SELECT ` + quoteColumns + ` FROM quotes WHERE id=$1`
	return scanQuote(r.pool.QueryRow(ctx, query, id))
}

func (r *quoteRepository) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Quote, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + quoteColumns + ` FROM quotes
        WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *quote)
	}
	return result, rows.Err()
}

func (r *quoteRepository) DecideIfPending(ctx context.Context, id string, next domain.QuoteStatus) (*domain.Quote, bool, error) {
	acceptedAt := ""
	if next == domain.QuoteStatusAccepted {
		acceptedAt = ", accepted_at = NOW()"
	}
	query := `
        UPDATE quotes SET status=$1` + acceptedAt + `
        WHERE id=$2 AND status='pending'
        RETURNING ` + quoteColumns
	quote, err := scanQuote(r.pool.QueryRow(ctx, query, next, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return quote, true, nil
}

func (r *quoteRepository) SupersedePending(ctx context.Context, ticketID string) ([]string, error) {
	const query = `
        UPDATE quotes SET status='rejected'
        WHERE ticket_id=$1 AND status='pending'
        RETURNING id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var quote domain.Quote
	if err := row.Scan(
		&quote.ID,
		&quote.TicketID,
		&quote.AmountCents,
		&quote.DepositCents,
		&quote.Currency,
		&quote.Description,
		&quote.Status,
		&quote.CreatedAt,
		&quote.AcceptedAt,
		&quote.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &quote, nil
}
