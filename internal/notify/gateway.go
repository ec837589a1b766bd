package notify

import (
	"context"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// ChannelRequest asks the chat gateway to create a private ticket channel
// visible to the opening user and the support team.
type ChannelRequest struct {
	TicketID       string `json:"ticketId"`
	PlatformUserID string `json:"platformUserId"`
	CategoryKey    string `json:"categoryKey"`
	Topic          string `json:"topic"`
}

// Gateway is the chat platform surface the backend talks to. All methods
// are network calls to the bot gateway; callers treat failures as
// best-effort except channel creation, which tickets depend on.
type Gateway interface {
	CreateTicketChannel(ctx context.Context, req ChannelRequest) (channelID string, err error)
	DeleteChannel(ctx context.Context, channelID string) error
	PostToChannel(ctx context.Context, channelID, content string) error
	SendDirectMessage(ctx context.Context, platformUserID, content string) error
	FetchChannelMessages(ctx context.Context, channelID string) ([]domain.TranscriptMessage, error)
}
