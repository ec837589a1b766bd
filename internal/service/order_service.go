package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/catalog"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/repository"
	"github.com/spec-kit/commerce-desk/internal/signedurl"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// OrderService handles catalog checkouts and payment webhook processing.
type OrderService struct {
	orders      repository.OrderRepository
	quotes      repository.QuoteRepository
	tickets     repository.TicketRepository
	licenses    repository.LicenseRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	audits      repository.AuditLogRepository
	userSvc     *UserService
	catalog     *catalog.Catalog
	provider    payments.Provider
	signer      *signedurl.Signer
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo      repository.OrderRepository
	QuoteRepo      repository.QuoteRepository
	TicketRepo     repository.TicketRepository
	LicenseRepo    repository.LicenseRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	AuditRepo      repository.AuditLogRepository
	UserService    *UserService
	Catalog        *catalog.Catalog
	Provider       payments.Provider
	Signer         *signedurl.Signer
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:      deps.OrderRepo,
		quotes:      deps.QuoteRepo,
		tickets:     deps.TicketRepo,
		licenses:    deps.LicenseRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		audits:      deps.AuditRepo,
		userSvc:     deps.UserService,
		catalog:     deps.Catalog,
		provider:    deps.Provider,
		signer:      deps.Signer,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// CheckoutProduct opens a checkout session for a catalog product and
// records the pending order.
func (s *OrderService) CheckoutProduct(ctx context.Context, actor domain.Actor, sku string) (*domain.Order, string, error) {
	product, err := s.catalog.Product(sku)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Upsert(ctx, actor.ID, actor.Tag)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		Currency: "EUR",
		Items: []payments.CheckoutItem{{
			Name:        product.Name,
			Description: product.Description,
			SKU:         product.SKU,
			AmountCents: product.PriceCents,
			Quantity:    1,
		}},
		Metadata: map[string]string{
			"type":             "product",
			"sku":              product.SKU,
			"platform_user_id": actor.ID,
		},
	})
	if err != nil {
		return nil, "", err
	}

	order := &domain.Order{
		UserID:          user.ID,
		Kind:            domain.OrderKindProduct,
		SKU:             product.SKU,
		AmountCents:     product.PriceCents,
		Currency:        "EUR",
		Status:          domain.OrderStatusPending,
		SessionID:       session.ID,
		DeliverableFile: product.DeliverableFile,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, "", apperrors.MapError(err)
	}

	s.appendAudit(ctx, domain.AuditOrderCreated, actor.ID, order.ID, map[string]any{
		"sku":          product.SKU,
		"amount_cents": product.PriceCents,
		"session_id":   session.ID,
	})
	return order, session.URL, nil
}

// HandleWebhookEvent applies a verified provider notification. Completed
// sessions are processed at most once: the paid transition is a
// compare-and-swap keyed by session id, and replays return nil without
// side effects.
func (s *OrderService) HandleWebhookEvent(ctx context.Context, event payments.Event) error {
	switch event.Type {
	case payments.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case payments.EventPaymentFailed:
		s.publish(ctx, events.EventPaymentFailed, "system", events.PaymentFailedPayload{
			SessionID:       event.SessionID,
			BuyerPlatformID: event.Metadata["platform_user_id"],
			Reason:          event.FailureMessage,
		})
		return nil
	case payments.EventChargeRefunded:
		// refunds are admin-driven; the provider echo carries no new state
		s.logger.Info("charge refund acknowledged",
			zap.String("payment_intent", event.PaymentIntentID),
			zap.Int64("amount_refunded", event.AmountRefunded),
		)
		return nil
	default:
		return nil
	}
}

// Get loads an order by id.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

func (s *OrderService) handleCheckoutCompleted(ctx context.Context, event payments.Event) error {
	order, ok, err := s.orders.MarkPaidBySession(ctx, event.SessionID, event.PaymentIntentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		s.logger.Info("checkout completion replayed or unknown, skipping",
			zap.String("session_id", event.SessionID))
		return nil
	}

	buyer, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}

	payload := events.OrderPaidPayload{
		OrderID:         order.ID,
		SessionID:       order.SessionID,
		Kind:            string(order.Kind),
		SKU:             order.SKU,
		AmountCents:     order.AmountCents,
		Currency:        order.Currency,
		BuyerPlatformID: buyer.PlatformID,
	}

	switch order.Kind {
	case domain.OrderKindProduct:
		key := domain.NewLicenseKey(buyer.PlatformID, order.SKU, time.Now().UTC())
		if err := s.licenses.Create(ctx, &domain.License{
			Key:     key,
			UserID:  order.UserID,
			SKU:     order.SKU,
			OrderID: order.ID,
		}); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.orders.SetLicenseKey(ctx, order.ID, key); err != nil {
			return apperrors.MapError(err)
		}
		payload.LicenseKey = key

		if order.DeliverableFile != "" {
			token, err := s.signer.Sign(order.DeliverableFile, buyer.PlatformID)
			if err != nil {
				s.logger.Error("download token issue failed",
					zap.String("order_id", order.ID), zap.Error(err))
			} else {
				payload.DownloadToken = token
			}
		}

	case domain.OrderKindQuote:
		quote, err := s.quotes.GetByID(ctx, order.QuoteID)
		if err != nil {
			return apperrors.MapError(err)
		}
		ticket, updated, err := s.tickets.UpdateStatusIf(ctx, quote.TicketID,
			[]domain.TicketStatus{domain.TicketStatusWaitingPayment}, domain.TicketStatusCompleted)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !updated {
			s.logger.Warn("ticket was not awaiting payment at settlement",
				zap.String("ticket_id", quote.TicketID), zap.String("order_id", order.ID))
		} else {
			payload.TicketChannelID = ticket.ChannelID
			if err := s.assignments.Release(ctx, ticket.ID); err != nil {
				s.logger.Warn("assignment release failed",
					zap.String("ticket_id", ticket.ID), zap.Error(err))
			}
		}
	}

	if _, err := s.userSvc.AccrueSpend(ctx, order.UserID, order.AmountCents); err != nil {
		s.logger.Warn("spend accrual failed",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	s.appendAudit(ctx, domain.AuditOrderPaid, "system", order.ID, map[string]any{
		"session_id":   order.SessionID,
		"amount_cents": order.AmountCents,
		"kind":         string(order.Kind),
	})
	s.publish(ctx, events.EventOrderPaid, "system", payload)
	return nil
}

func (s *OrderService) appendAudit(ctx context.Context, action domain.AuditAction, actorID, orderID string, details map[string]any) {
	if err := s.audits.Append(ctx, &domain.AuditLogEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: "order",
		TargetID:   orderID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *OrderService) publish(ctx context.Context, eventType events.EventType, actorID string, payload interface{}) {
	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
