package payments

import (
	"context"
	"time"
)

// EventType classifies a provider webhook notification.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout_completed"
	EventPaymentFailed     EventType = "payment_failed"
	EventChargeRefunded    EventType = "charge_refunded"
	// EventIgnored marks notifications the service does not act on.
	EventIgnored EventType = "ignored"
)

// Event is a provider-neutral webhook notification.
type Event struct {
	Type            EventType
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	AmountRefunded  int64
	FailureMessage  string
	Metadata        map[string]string
}

// CheckoutItem is one purchasable line in a checkout session.
type CheckoutItem struct {
	Name        string
	Description string
	SKU         string
	AmountCents int64
	Quantity    int64
}

// CheckoutRequest describes a hosted checkout session to create. Metadata
// is propagated to both the session and its payment intent so every
// webhook notification carries it.
type CheckoutRequest struct {
	Items          []CheckoutItem
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession is the created hosted checkout session.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	ExpiresAt       time.Time
}

// RefundRequest asks the provider to return funds on a settled payment.
// A nil AmountCents refunds the full charge.
type RefundRequest struct {
	PaymentIntentID string
	AmountCents     *int64
	Reason          string
	IdempotencyKey  string
}

// Provider abstracts the payment processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	CreateRefund(ctx context.Context, req RefundRequest) error
	VerifyWebhook(payload []byte, signature string) (Event, error)
}
