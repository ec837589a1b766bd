package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/catalog"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/notify"
)

// NotificationService turns domain events into chat messages. Handlers run
// after the ledger write has committed and are strictly best-effort: a
// failed send is logged, never propagated.
type NotificationService struct {
	gateway notify.Gateway
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(gateway notify.Gateway, cat *catalog.Catalog, logger *zap.Logger) *NotificationService {
	return &NotificationService{gateway: gateway, catalog: cat, logger: logger}
}

// Register subscribes the notification handlers on the dispatcher.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketClaimed, s.onTicketClaimed)
	dispatcher.Subscribe(events.EventTicketReassigned, s.onTicketClaimed)
	dispatcher.Subscribe(events.EventTicketClosed, s.onTicketClosed)
	dispatcher.Subscribe(events.EventQuoteCreated, s.onQuoteCreated)
	dispatcher.Subscribe(events.EventQuoteAccepted, s.onQuoteAccepted)
	dispatcher.Subscribe(events.EventQuoteRejected, s.onQuoteRejected)
	dispatcher.Subscribe(events.EventOrderPaid, s.onOrderPaid)
	dispatcher.Subscribe(events.EventPaymentFailed, s.onPaymentFailed)
	dispatcher.Subscribe(events.EventRefundProcessed, s.onRefundProcessed)
}

func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}

	lines := []string{fmt.Sprintf("Ticket opened. Welcome <@%s>!", payload.OwnerPlatformID)}
	if category, err := s.catalog.Category(payload.Category); err == nil && len(category.Questions) > 0 {
		lines = append(lines, "Please answer the following so we can get started:")
		for i, q := range category.Questions {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, q))
		}
	}
	s.post(ctx, payload.ChannelID, strings.Join(lines, "\n"))
	return nil
}

func (s *NotificationService) onTicketClaimed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClaimedPayload)
	if !ok {
		return nil
	}
	verb := "claimed"
	if payload.Reassigned {
		verb = "reassigned to"
	}
	s.post(ctx, payload.ChannelID, fmt.Sprintf("Ticket %s %s.", verb, payload.AssigneeTag))
	s.dm(ctx, payload.OwnerPlatformID,
		fmt.Sprintf("Your ticket is now handled by %s.", payload.AssigneeTag))
	return nil
}

func (s *NotificationService) onTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	message := "Ticket closed. This channel will be removed shortly."
	if payload.Reason != "" {
		message = fmt.Sprintf("Ticket closed: %s. This channel will be removed shortly.", payload.Reason)
	}
	s.post(ctx, payload.ChannelID, message)
	s.dm(ctx, payload.OwnerPlatformID, "Your ticket has been closed. Thanks for reaching out!")
	return nil
}

func (s *NotificationService) onQuoteCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuoteCreatedPayload)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("New quote: %s for %s", formatAmount(payload.AmountCents, payload.Currency), payload.Description)
	if payload.DepositCents > 0 {
		message += fmt.Sprintf(" (deposit %s)", formatAmount(payload.DepositCents, payload.Currency))
	}
	s.post(ctx, payload.ChannelID, message)
	return nil
}

func (s *NotificationService) onQuoteAccepted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuoteDecisionPayload)
	if !ok {
		return nil
	}
	s.post(ctx, payload.ChannelID, fmt.Sprintf(
		"Quote accepted. Complete the payment of %s here: %s",
		formatAmount(payload.AmountCents, payload.Currency), payload.PaymentURL))
	return nil
}

func (s *NotificationService) onQuoteRejected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.QuoteDecisionPayload)
	if !ok {
		return nil
	}
	s.post(ctx, payload.ChannelID, "Quote declined. A revised quote can be issued.")
	return nil
}

func (s *NotificationService) onOrderPaid(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderPaidPayload)
	if !ok {
		return nil
	}
	if payload.TicketChannelID != "" {
		s.post(ctx, payload.TicketChannelID, "Payment received. The ticket is now completed.")
	}

	lines := []string{fmt.Sprintf("Payment of %s received, thank you!",
		formatAmount(payload.AmountCents, payload.Currency))}
	if payload.LicenseKey != "" {
		lines = append(lines, "License key: "+payload.LicenseKey)
	}
	if payload.DownloadToken != "" {
		lines = append(lines, "Download token (valid for a limited time): "+payload.DownloadToken)
	}
	s.dm(ctx, payload.BuyerPlatformID, strings.Join(lines, "\n"))
	return nil
}

func (s *NotificationService) onPaymentFailed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PaymentFailedPayload)
	if !ok {
		return nil
	}
	message := "Your payment failed. Please try again."
	if payload.Reason != "" {
		message = fmt.Sprintf("Your payment failed: %s. Please try again.", payload.Reason)
	}
	s.dm(ctx, payload.BuyerPlatformID, message)
	return nil
}

func (s *NotificationService) onRefundProcessed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RefundProcessedPayload)
	if !ok {
		return nil
	}
	s.dm(ctx, payload.BuyerPlatformID, fmt.Sprintf(
		"A refund of %s has been issued to your payment method.",
		formatAmount(payload.AmountCents, payload.Currency)))
	return nil
}

func (s *NotificationService) post(ctx context.Context, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := s.gateway.PostToChannel(ctx, channelID, content); err != nil {
		s.logger.Warn("channel notification failed",
			zap.String("channel_id", channelID), zap.Error(err))
	}
}

func (s *NotificationService) dm(ctx context.Context, platformUserID, content string) {
	if platformUserID == "" {
		return
	}
	if err := s.gateway.SendDirectMessage(ctx, platformUserID, content); err != nil {
		s.logger.Warn("direct message failed",
			zap.String("platform_user_id", platformUserID), zap.Error(err))
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
