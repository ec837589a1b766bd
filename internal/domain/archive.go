package domain

import "time"

// TranscriptMessage is one exported channel message.
type TranscriptMessage struct {
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments,omitempty"`
}

// Transcript is the ordered message export taken when a ticket closes.
type Transcript struct {
	TicketID string              `json:"ticket_id"`
	Category string              `json:"category"`
	Client   string              `json:"client"`
	OpenedAt time.Time           `json:"opened_at"`
	ClosedAt time.Time           `json:"closed_at"`
	Messages []TranscriptMessage `json:"messages"`
}

// Archive persists a transcript snapshot for a closed ticket.
type Archive struct {
	ID            string
	TicketID      string
	Transcript    Transcript
	SizeBytes     int64
	ClosedByID    string
	CloseReason   string
	CreatedAt     time.Time
}
