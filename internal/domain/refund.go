package domain

import "time"

// RefundStatus enumerates refund workflow states.
type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusCancelled RefundStatus = "cancelled"
)

// Outstanding reports whether the refund still blocks new refund requests
// against the same order.
func (s RefundStatus) Outstanding() bool {
	return s == RefundStatusRequested || s == RefundStatusApproved
}

// Refund tracks an admin-initiated refund against a paid order. At most one
// outstanding refund may exist per order.
type Refund struct {
	ID            string
	OrderID       string
	AmountCents   int64
	Currency      string
	Reason        string
	Status        RefundStatus
	ProcessedByID string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}
