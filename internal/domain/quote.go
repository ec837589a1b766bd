package domain

import "time"

// QuoteStatus enumerates quote states. Accepted and rejected are terminal.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s QuoteStatus) Terminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected
}

// QuoteValidity is how long a quote stays acceptable after creation.
const QuoteValidity = 7 * 24 * time.Hour

// Quote is a proposed price for custom work on a ticket.
type Quote struct {
	ID           string
	TicketID     string
	AmountCents  int64
	DepositCents int64
	Currency     string
	Description  string
	Status       QuoteStatus
	CreatedAt    time.Time
	AcceptedAt   *time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the quote can no longer be accepted.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
