package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// AssignmentRepository encapsulates assignment persistence. Claim is a
// conditional insert: the per-ticket uniqueness comes from the
// assignments_one_active_per_ticket index, and the cross-ticket assignee
// exclusivity from the NOT EXISTS guard inside the same statement, so the
// claim path has no check-then-act window.
type AssignmentRepository interface {
	Claim(ctx context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error)
	// Replace releases any active assignment for the ticket and inserts a
	// new one. Used by the admin reassign path; skips the assignee-busy guard.
	Replace(ctx context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error)
	GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error)
	GetActiveByAssignee(ctx context.Context, assigneeID string) (*domain.Assignment, error)
	// Release deactivates the ticket's active assignment, if any.
	Release(ctx context.Context, ticketID string) error
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, ticket_id, assignee_id, role_type, active, created_at, released_at`

func (r *assignmentRepository) Claim(ctx context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error) {
	const query = `
        INSERT INTO assignments (ticket_id, assignee_id, role_type)
        SELECT $1, $2, $3
        WHERE NOT EXISTS (
            SELECT 1 FROM assignments a
            JOIN tickets t ON t.id = a.ticket_id
            WHERE a.assignee_id = $2 AND a.active
              AND t.status IN ('open','claimed','in_progress','waiting_payment')
        )
        RETURNING ` + assignmentColumns
	assignment, err := scanAssignment(r.pool.QueryRow(ctx, query, ticketID, assigneeID, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssigneeBusy
		}
		return nil, mapConstraint(err)
	}
	return assignment, nil
}

func (r *assignmentRepository) Replace(ctx context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE assignments SET active=FALSE, released_at=NOW() WHERE ticket_id=$1 AND active`,
		ticketID); err != nil {
		return nil, err
	}

	assignment, err := scanAssignment(tx.QueryRow(ctx,
		`INSERT INTO assignments (ticket_id, assignee_id, role_type)
         VALUES ($1,$2,$3)
         RETURNING `+assignmentColumns,
		ticketID, assigneeID, role))
	if err != nil {
		return nil, mapConstraint(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *assignmentRepository) GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 AND active`
	return scanAssignment(r.pool.QueryRow(ctx, query, ticketID))
}

func (r *assignmentRepository) GetActiveByAssignee(ctx context.Context, assigneeID string) (*domain.Assignment, error) {
	const query = `
        SELECT ` + assignmentColumns + ` FROM assignments a
        WHERE a.assignee_id=$1 AND a.active
          AND EXISTS (
            SELECT 1 FROM tickets t
            WHERE t.id = a.ticket_id
              AND t.status IN ('open','claimed','in_progress','waiting_payment')
          )
        LIMIT 1`
	return scanAssignment(r.pool.QueryRow(ctx, query, assigneeID))
}

func (r *assignmentRepository) Release(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignments SET active=FALSE, released_at=NOW() WHERE ticket_id=$1 AND active`,
		ticketID)
	return err
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.TicketID,
		&assignment.AssigneeID,
		&assignment.Role,
		&assignment.Active,
		&assignment.CreatedAt,
		&assignment.ReleasedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}
