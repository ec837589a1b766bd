package dto

import (
	"time"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// CreateQuoteRequest payload.
type CreateQuoteRequest struct {
	TicketID     string `json:"ticket_id"`
	AmountCents  int64  `json:"amount_cents"`
	DepositCents int64  `json:"deposit_cents"`
	Currency     string `json:"currency"`
	Description  string `json:"description"`
}

// QuoteResponse is the wire shape for a quote.
type QuoteResponse struct {
	ID           string             `json:"id"`
	TicketID     string             `json:"ticket_id"`
	AmountCents  int64              `json:"amount_cents"`
	DepositCents int64              `json:"deposit_cents"`
	Currency     string             `json:"currency"`
	Description  string             `json:"description"`
	Status       domain.QuoteStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	AcceptedAt   *time.Time         `json:"accepted_at,omitempty"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

// QuoteAcceptedResponse pairs the accepted quote with its payment link.
type QuoteAcceptedResponse struct {
	Quote      QuoteResponse `json:"quote"`
	PaymentURL string        `json:"payment_url"`
}

// CheckoutRequest payload for catalog purchases.
type CheckoutRequest struct {
	SKU string `json:"sku"`
}

// OrderResponse is the wire shape for an order.
type OrderResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Kind        domain.OrderKind   `json:"kind"`
	SKU         string             `json:"sku,omitempty"`
	QuoteID     string             `json:"quote_id,omitempty"`
	AmountCents int64              `json:"amount_cents"`
	Currency    string             `json:"currency"`
	Status      domain.OrderStatus `json:"status"`
	LicenseKey  string             `json:"license_key,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	PaidAt      *time.Time         `json:"paid_at,omitempty"`
}

// CheckoutResponse pairs a pending order with its payment link.
type CheckoutResponse struct {
	Order      OrderResponse `json:"order"`
	PaymentURL string        `json:"payment_url"`
}

// RequestRefundRequest payload. AmountCents nil means a full refund.
type RequestRefundRequest struct {
	OrderID     string `json:"order_id"`
	AmountCents *int64 `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// RefundResponse is the wire shape for a refund.
type RefundResponse struct {
	ID          string              `json:"id"`
	OrderID     string              `json:"order_id"`
	AmountCents int64               `json:"amount_cents"`
	Currency    string              `json:"currency"`
	Reason      string              `json:"reason"`
	Status      domain.RefundStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
}

// RefundRequestedResponse carries the confirmation token for a pending refund.
type RefundRequestedResponse struct {
	Refund RefundResponse `json:"refund"`
	Token  string         `json:"token"`
}
