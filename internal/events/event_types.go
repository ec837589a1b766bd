package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketClaimed    EventType = "ticket_claimed"
	EventTicketReassigned EventType = "ticket_reassigned"
	EventTicketClosed     EventType = "ticket_closed"
	EventQuoteCreated     EventType = "quote_created"
	EventQuoteAccepted    EventType = "quote_accepted"
	EventQuoteRejected    EventType = "quote_rejected"
	EventOrderPaid        EventType = "order_paid"
	EventPaymentFailed    EventType = "payment_failed"
	EventRefundProcessed  EventType = "refund_processed"
)

// Event represents a domain event emitted by services after the ledger
// write has committed. Handlers run best-effort and never feed errors back
// into the originating transition.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID       string `json:"ticket_id"`
	Category       string `json:"category"`
	ChannelID      string `json:"channel_id"`
	OwnerPlatformID string `json:"owner_platform_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	TicketID        string `json:"ticket_id"`
	ChannelID       string `json:"channel_id"`
	AssigneeID      string `json:"assignee_id"`
	AssigneeTag     string `json:"assignee_tag"`
	OwnerPlatformID string `json:"owner_platform_id"`
	Reassigned      bool   `json:"reassigned"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	TicketID        string `json:"ticket_id"`
	ChannelID       string `json:"channel_id"`
	Reason          string `json:"reason"`
	ClosedByID      string `json:"closed_by_id"`
	OwnerPlatformID string `json:"owner_platform_id"`
	MessageCount    int    `json:"message_count"`
}

// QuoteCreatedPayload payload.
type QuoteCreatedPayload struct {
	QuoteID         string `json:"quote_id"`
	TicketID        string `json:"ticket_id"`
	ChannelID       string `json:"channel_id"`
	AmountCents     int64  `json:"amount_cents"`
	DepositCents    int64  `json:"deposit_cents"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	OwnerPlatformID string `json:"owner_platform_id"`
}

// QuoteDecisionPayload payload for accept/reject.
type QuoteDecisionPayload struct {
	QuoteID     string `json:"quote_id"`
	TicketID    string `json:"ticket_id"`
	ChannelID   string `json:"channel_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	SessionID   string `json:"session_id,omitempty"`
	PaymentURL  string `json:"payment_url,omitempty"`
}

// OrderPaidPayload payload.
type OrderPaidPayload struct {
	OrderID         string `json:"order_id"`
	SessionID       string `json:"session_id"`
	Kind            string `json:"kind"`
	SKU             string `json:"sku,omitempty"`
	TicketChannelID string `json:"ticket_channel_id,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	BuyerPlatformID string `json:"buyer_platform_id"`
	LicenseKey      string `json:"license_key,omitempty"`
	DownloadToken   string `json:"download_token,omitempty"`
}

// PaymentFailedPayload payload.
type PaymentFailedPayload struct {
	SessionID       string `json:"session_id"`
	BuyerPlatformID string `json:"buyer_platform_id"`
	Reason          string `json:"reason"`
}

// RefundProcessedPayload payload.
type RefundProcessedPayload struct {
	RefundID        string `json:"refund_id"`
	OrderID         string `json:"order_id"`
	SessionID       string `json:"session_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	BuyerPlatformID string `json:"buyer_platform_id"`
}
