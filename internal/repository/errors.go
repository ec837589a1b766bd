package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by the conditional-write primitives. Services map
// these to user-facing invalid-state rejections.
var (
	ErrOpenTicketExists      = errors.New("user already has an open ticket")
	ErrTicketAlreadyAssigned = errors.New("ticket already has an active assignment")
	ErrAssigneeBusy          = errors.New("assignee already holds an active assignment")
	ErrRefundOutstanding     = errors.New("order already has an outstanding refund")
	ErrSessionExists         = errors.New("checkout session reference already recorded")
)

const pgUniqueViolation = "23505"

// mapConstraint converts a unique-constraint violation into the sentinel
// matching the named index, or returns err unchanged.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "tickets_one_open_per_user":
		return ErrOpenTicketExists
	case "assignments_one_active_per_ticket":
		return ErrTicketAlreadyAssigned
	case "refunds_one_outstanding_per_order":
		return ErrRefundOutstanding
	case "orders_session_id_key":
		return ErrSessionExists
	}
	return err
}
