package domain

import "time"

// AssignmentRole describes the capacity in which a staff actor holds a ticket.
type AssignmentRole string

const (
	AssignmentRoleSupport AssignmentRole = "support"
	AssignmentRoleAdmin   AssignmentRole = "admin"
)

// Assignment records which staff actor currently owns a ticket. A ticket has
// at most one active assignment; assigning again releases the previous one.
type Assignment struct {
	ID         string
	TicketID   string
	AssigneeID string
	Role       AssignmentRole
	Active     bool
	CreatedAt  time.Time
	ReleasedAt *time.Time
}
