package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// TicketFilter captures listing parameters for admin reporting.
type TicketFilter struct {
	UserID      *string
	Category    *string
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Create relies on the
// tickets_one_open_per_user index and surfaces ErrOpenTicketExists, so
// callers never need a separate existence check.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByChannelID(ctx context.Context, channelID string) (*domain.Ticket, error)
	GetOpenByUserID(ctx context.Context, userID string) (*domain.Ticket, error)
	// UpdateStatusIf transitions status only when the row still carries one
	// of the expected states. Returns the updated row, or false when the
	// compare-and-swap did not apply.
	UpdateStatusIf(ctx context.Context, id string, expected []domain.TicketStatus, next domain.TicketStatus) (*domain.Ticket, bool, error)
	// SetResponsesOnce persists intake responses only when none are stored
	// yet. Returns false when responses already exist.
	SetResponsesOnce(ctx context.Context, id string, responses []domain.IntakeResponse) (bool, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, user_id, category, channel_id, status, responses, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, category, channel_id, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Category,
		ticket.ChannelID,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapConstraint(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByChannelID(ctx context.Context, channelID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE channel_id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, channelID))
}

func (r *ticketRepository) GetOpenByUserID(ctx context.Context, userID string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets
        WHERE user_id=$1 AND status IN ('open','claimed','in_progress','waiting_payment')`
	return scanTicket(r.pool.QueryRow(ctx, query, userID))
}

func (r *ticketRepository) UpdateStatusIf(ctx context.Context, id string, expected []domain.TicketStatus, next domain.TicketStatus) (*domain.Ticket, bool, error) {
	placeholders := make([]string, len(expected))
	args := []any{next, id}
	for i, status := range expected {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	closedAt := ""
	if next == domain.TicketStatusClosed {
		closedAt = ", closed_at = NOW()"
	}
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$1, updated_at=NOW()%s
        WHERE id=$2 AND status IN (%s)
        RETURNING %s`, closedAt, strings.Join(placeholders, ","), ticketColumns)
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ticket, true, nil
}

func (r *ticketRepository) SetResponsesOnce(ctx context.Context, id string, responses []domain.IntakeResponse) (bool, error) {
	payload, err := json.Marshal(responses)
	if err != nil {
		return false, err
	}
	const query = `
        UPDATE tickets SET responses=$1, updated_at=NOW()
        WHERE id=$2 AND responses IS NULL`
	cmd, err := r.pool.Exec(ctx, query, payload, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket    domain.Ticket
		responses []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Category,
		&ticket.ChannelID,
		&ticket.Status,
		&responses,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &ticket.Responses); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}
