package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/domain"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// HTTPGateway talks to the bot gateway's HTTP API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPGateway builds a Gateway client for the given base URL.
func NewHTTPGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (g *HTTPGateway) CreateTicketChannel(ctx context.Context, req ChannelRequest) (string, error) {
	var resp struct {
		ChannelID string `json:"channelId"`
	}
	if err := g.do(ctx, http.MethodPost, "/channels", req, &resp); err != nil {
		return "", apperrors.NewUpstreamFailure("gateway.create_channel", err)
	}
	if resp.ChannelID == "" {
		return "", apperrors.NewUpstreamFailure("gateway.create_channel", fmt.Errorf("gateway returned empty channel id"))
	}
	return resp.ChannelID, nil
}

func (g *HTTPGateway) DeleteChannel(ctx context.Context, channelID string) error {
	path := "/channels/" + channelID
	if err := g.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		g.logger.Warn("gateway channel delete failed",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
		return apperrors.NewUpstreamFailure("gateway.delete_channel", err)
	}
	return nil
}

func (g *HTTPGateway) PostToChannel(ctx context.Context, channelID, content string) error {
	body := map[string]string{"content": content}
	path := "/channels/" + channelID + "/messages"
	if err := g.do(ctx, http.MethodPost, path, body, nil); err != nil {
		g.logger.Warn("gateway channel post failed",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
		return apperrors.NewUpstreamFailure("gateway.post_channel", err)
	}
	return nil
}

func (g *HTTPGateway) SendDirectMessage(ctx context.Context, platformUserID, content string) error {
	body := map[string]string{"content": content}
	path := "/users/" + platformUserID + "/messages"
	if err := g.do(ctx, http.MethodPost, path, body, nil); err != nil {
		g.logger.Warn("gateway direct message failed",
			zap.String("platform_user_id", platformUserID),
			zap.Error(err),
		)
		return apperrors.NewUpstreamFailure("gateway.direct_message", err)
	}
	return nil
}

func (g *HTTPGateway) FetchChannelMessages(ctx context.Context, channelID string) ([]domain.TranscriptMessage, error) {
	var resp struct {
		Messages []domain.TranscriptMessage `json:"messages"`
	}
	path := "/channels/" + channelID + "/messages"
	if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, apperrors.NewUpstreamFailure("gateway.fetch_messages", err)
	}
	return resp.Messages, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
