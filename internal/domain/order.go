package domain

import "time"

// OrderStatus enumerates payment states for an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderKind distinguishes catalog purchases from accepted-quote payments.
type OrderKind string

const (
	OrderKindProduct OrderKind = "product"
	OrderKindQuote   OrderKind = "quote"
)

// Order is a monetary transaction, either against a catalog SKU or an
// accepted quote. SessionID is the external checkout-session reference and
// doubles as the idempotency key for the paid transition.
type Order struct {
	ID              string
	UserID          string
	Kind            OrderKind
	SKU             string
	QuoteID         string
	AmountCents     int64
	Currency        string
	Status          OrderStatus
	SessionID       string
	PaymentIntentID string
	DeliverableFile string
	LicenseKey      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PaidAt          *time.Time
}
