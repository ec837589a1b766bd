package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/notify"
)

// ChannelJanitor deletes ticket channels a grace period after closure, so
// participants can read the closing notice before the channel disappears.
type ChannelJanitor struct {
	gateway notify.Gateway
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewChannelJanitor constructs the janitor.
func NewChannelJanitor(gateway notify.Gateway, logger *zap.Logger) *ChannelJanitor {
	return &ChannelJanitor{
		gateway: gateway,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule queues channel deletion after the grace period. Scheduling the
// same ticket again resets the timer.
func (j *ChannelJanitor) Schedule(ticketID, channelID string, delay time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if timer, ok := j.pending[ticketID]; ok {
		if timer.Stop() {
			j.wg.Done()
		}
	}

	j.wg.Add(1)
	j.pending[ticketID] = time.AfterFunc(delay, func() {
		defer j.wg.Done()

		j.mu.Lock()
		delete(j.pending, ticketID)
		j.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.gateway.DeleteChannel(ctx, channelID); err != nil {
			j.logger.Warn("scheduled channel deletion failed",
				zap.String("ticket_id", ticketID),
				zap.String("channel_id", channelID),
				zap.Error(err),
			)
			return
		}
		j.logger.Info("ticket channel deleted",
			zap.String("ticket_id", ticketID),
			zap.String("channel_id", channelID),
		)
	})
}

// Cancel drops a queued deletion, if one is still pending.
func (j *ChannelJanitor) Cancel(ticketID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	timer, ok := j.pending[ticketID]
	if !ok {
		return false
	}
	delete(j.pending, ticketID)
	if timer.Stop() {
		j.wg.Done()
	}
	return true
}

// Shutdown stops all pending timers without firing them.
func (j *ChannelJanitor) Shutdown() {
	j.mu.Lock()
	for id, timer := range j.pending {
		if timer.Stop() {
			j.wg.Done()
		}
		delete(j.pending, id)
	}
	j.mu.Unlock()
	j.wg.Wait()
}
