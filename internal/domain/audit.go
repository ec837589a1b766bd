package domain

import "time"

// AuditAction tags an audit log entry.
type AuditAction string

const (
	AuditTicketCreated    AuditAction = "ticket_created"
	AuditTicketAnswered   AuditAction = "ticket_answered"
	AuditTicketClaimed    AuditAction = "ticket_claimed"
	AuditTicketReassigned AuditAction = "ticket_reassigned"
	AuditTicketProgress   AuditAction = "ticket_in_progress"
	AuditTicketClosed     AuditAction = "ticket_closed"
	AuditChannelPreserved AuditAction = "channel_preserved"
	AuditQuoteCreated     AuditAction = "quote_created"
	AuditQuoteSuperseded  AuditAction = "quote_superseded"
	AuditQuoteAccepted    AuditAction = "quote_accepted"
	AuditQuoteRejected    AuditAction = "quote_rejected"
	AuditOrderCreated     AuditAction = "order_created"
	AuditOrderPaid        AuditAction = "order_paid"
	AuditRefundRequested  AuditAction = "refund_requested"
	AuditRefundProcessed  AuditAction = "refund_processed"
	AuditVIPChanged       AuditAction = "vip_changed"
)

// AuditLogEntry is an append-only record of a state-changing action.
// Entries are never mutated or deleted.
type AuditLogEntry struct {
	ID         string
	Action     AuditAction
	ActorID    string
	TargetType string
	TargetID   string
	Details    map[string]any
	CreatedAt  time.Time
}
