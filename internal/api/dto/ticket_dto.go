package dto

import (
	"time"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Category string `json:"category"`
}

// IntakeResponseInput is one answered intake question.
type IntakeResponseInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RecordResponsesRequest payload.
type RecordResponsesRequest struct {
	Responses []IntakeResponseInput `json:"responses"`
}

// ReassignTicketRequest payload.
type ReassignTicketRequest struct {
	AssigneeID  string `json:"assignee_id"`
	AssigneeTag string `json:"assignee_tag"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Reason string `json:"reason"`
}

// ConfirmTokenRequest carries a one-shot confirmation token.
type ConfirmTokenRequest struct {
	Token string `json:"token"`
}

// TicketResponse is the wire shape for a ticket.
type TicketResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"user_id"`
	Category  string                  `json:"category"`
	ChannelID string                  `json:"channel_id"`
	Status    domain.TicketStatus     `json:"status"`
	Responses []domain.IntakeResponse `json:"responses,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	ClosedAt  *time.Time              `json:"closed_at,omitempty"`
}

// TicketCreatedResponse pairs a new ticket with its intake questions.
type TicketCreatedResponse struct {
	Ticket    TicketResponse `json:"ticket"`
	Questions []string       `json:"questions"`
}

// CloseRequestedResponse carries the confirmation token for a pending close.
type CloseRequestedResponse struct {
	Token string `json:"token"`
}
