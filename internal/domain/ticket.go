package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen           TicketStatus = "open"
	TicketStatusClaimed        TicketStatus = "claimed"
	TicketStatusInProgress     TicketStatus = "in_progress"
	TicketStatusWaitingPayment TicketStatus = "waiting_payment"
	TicketStatusCompleted      TicketStatus = "completed"
	TicketStatusClosed         TicketStatus = "closed"
)

// OpenTicketStatuses are the states that count against the one-open-ticket
// invariant.
var OpenTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusClaimed,
	TicketStatusInProgress,
	TicketStatusWaitingPayment,
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:           {TicketStatusClaimed, TicketStatusClosed},
	TicketStatusClaimed:        {TicketStatusInProgress, TicketStatusWaitingPayment, TicketStatusClosed},
	TicketStatusInProgress:     {TicketStatusWaitingPayment, TicketStatusClosed},
	TicketStatusWaitingPayment: {TicketStatusCompleted, TicketStatusClosed},
	TicketStatusCompleted:      {},
	TicketStatusClosed:         {},
}

// CanTransition validates (current, next) against the ticket state table.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	for _, candidate := range ticketTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s TicketStatus) Terminal() bool {
	return len(ticketTransitions[s]) == 0
}

// IsOpen reports whether s counts as an open ticket.
func (s TicketStatus) IsOpen() bool {
	for _, open := range OpenTicketStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// IntakeResponse is one answered intake question.
type IntakeResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Ticket is a support/sales conversation thread with a lifecycle status.
// The backing channel is deleted after closure; the row is kept for audit.
type Ticket struct {
	ID        string
	UserID    string
	Category  string
	ChannelID string
	Status    TicketStatus
	Responses []IntakeResponse
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}
