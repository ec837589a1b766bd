package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/notify"
)

type fakeGateway struct {
	mu      sync.Mutex
	deleted []string
}

func (g *fakeGateway) CreateTicketChannel(context.Context, notify.ChannelRequest) (string, error) {
	return "chan-1", nil
}
func (g *fakeGateway) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, channelID)
	return nil
}
func (g *fakeGateway) PostToChannel(context.Context, string, string) error     { return nil }
func (g *fakeGateway) SendDirectMessage(context.Context, string, string) error { return nil }
func (g *fakeGateway) FetchChannelMessages(context.Context, string) ([]domain.TranscriptMessage, error) {
	return nil, nil
}

func (g *fakeGateway) deletedChannels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.deleted...)
}

func TestJanitorDeletesAfterDelay(t *testing.T) {
	gateway := &fakeGateway{}
	janitor := NewChannelJanitor(gateway, zap.NewNop())

	janitor.Schedule("ticket-1", "chan-1", 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(gateway.deletedChannels()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"chan-1"}, gateway.deletedChannels())
}

func TestJanitorCancelPreventsDeletion(t *testing.T) {
	gateway := &fakeGateway{}
	janitor := NewChannelJanitor(gateway, zap.NewNop())

	janitor.Schedule("ticket-1", "chan-1", 50*time.Millisecond)
	require.True(t, janitor.Cancel("ticket-1"))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, gateway.deletedChannels())
}

func TestJanitorCancelUnknownTicket(t *testing.T) {
	janitor := NewChannelJanitor(&fakeGateway{}, zap.NewNop())
	assert.False(t, janitor.Cancel("nope"))
}

func TestJanitorRescheduleResetsTimer(t *testing.T) {
	gateway := &fakeGateway{}
	janitor := NewChannelJanitor(gateway, zap.NewNop())

	janitor.Schedule("ticket-1", "chan-1", 10*time.Millisecond)
	janitor.Schedule("ticket-1", "chan-1", 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(gateway.deletedChannels()) >= 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, gateway.deletedChannels(), 1)
}

func TestJanitorShutdownStopsPending(t *testing.T) {
	gateway := &fakeGateway{}
	janitor := NewChannelJanitor(gateway, zap.NewNop())

	janitor.Schedule("ticket-1", "chan-1", time.Hour)
	janitor.Shutdown()
	assert.Empty(t, gateway.deletedChannels())
}
