package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/confirm"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/repository"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// RefundService runs the two-step admin refund workflow against paid
// orders. At most one refund may be outstanding per order.
type RefundService struct {
	refunds    repository.RefundRepository
	orders     repository.OrderRepository
	users      repository.UserRepository
	audits     repository.AuditLogRepository
	provider   payments.Provider
	confirms   confirm.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RefundDependencies bundles collaborators for the refund service.
type RefundDependencies struct {
	RefundRepo repository.RefundRepository
	OrderRepo  repository.OrderRepository
	UserRepo   repository.UserRepository
	AuditRepo  repository.AuditLogRepository
	Provider   payments.Provider
	Confirms   confirm.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewRefundService constructs the service.
func NewRefundService(deps RefundDependencies) *RefundService {
	return &RefundService{
		refunds:    deps.RefundRepo,
		orders:     deps.OrderRepo,
		users:      deps.UserRepo,
		audits:     deps.AuditRepo,
		provider:   deps.Provider,
		confirms:   deps.Confirms,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Request records a refund against a paid order and issues the one-shot
// confirmation token bound to the requesting admin. A nil amount refunds
// the full charge.
func (s *RefundService) Request(ctx context.Context, actor domain.Actor, orderID string, amountCents *int64, reason string) (*domain.Refund, string, error) {
	if !actor.Has(domain.CapabilityAdmin) {
		return nil, "", apperrors.NewForbidden("refunds require admin capability")
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.Status != domain.OrderStatusPaid {
		return nil, "", apperrors.NewInvalidState("only paid orders can be refunded", map[string]any{
			"status": string(order.Status),
		})
	}

	amount := order.AmountCents
	if amountCents != nil {
		amount = *amountCents
	}
	if amount <= 0 || amount > order.AmountCents {
		return nil, "", apperrors.NewInvalidInput("refund amount must be positive and within the paid amount", map[string]any{
			"requested_cents": amount,
			"paid_cents":      order.AmountCents,
		})
	}

	refund := &domain.Refund{
		OrderID:       order.ID,
		AmountCents:   amount,
		Currency:      order.Currency,
		Reason:        reason,
		Status:        domain.RefundStatusRequested,
		ProcessedByID: actor.ID,
	}
	if err := s.refunds.Create(ctx, refund); err != nil {
		if errors.Is(err, repository.ErrRefundOutstanding) {
			return nil, "", apperrors.NewInvalidState("a refund is already outstanding for this order", nil)
		}
		return nil, "", apperrors.MapError(err)
	}

	token, err := s.confirms.Issue(ctx, confirm.Pending{
		Action:      confirm.ActionProcessRefund,
		TargetID:    refund.ID,
		RequesterID: actor.ID,
		AmountCents: amount,
		Reason:      reason,
	})
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}

	s.appendAudit(ctx, domain.AuditRefundRequested, actor.ID, refund.ID, map[string]any{
		"order_id":     order.ID,
		"amount_cents": amount,
	})
	return refund, token, nil
}

// Confirm completes the refund: the provider is instructed to return the
// funds and the ledger rows flip. Only the requesting admin may confirm.
func (s *RefundService) Confirm(ctx context.Context, actor domain.Actor, token string) (*domain.Refund, error) {
	pending, err := s.confirms.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if pending.Action != confirm.ActionProcessRefund {
		return nil, apperrors.NewInvalidState("token does not confirm a refund", nil)
	}
	if pending.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("only the requester may confirm this refund")
	}

	refund, err := s.getRefund(ctx, pending.TargetID)
	if err != nil {
		return nil, err
	}
	if !refund.Status.Outstanding() {
		return nil, apperrors.NewInvalidState("refund is no longer outstanding", map[string]any{
			"status": string(refund.Status),
		})
	}

	order, err := s.getOrder(ctx, refund.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentIntentID == "" {
		return nil, apperrors.NewInvalidState("order carries no settled payment to refund", nil)
	}

	amount := refund.AmountCents
	if err := s.provider.CreateRefund(ctx, payments.RefundRequest{
		PaymentIntentID: order.PaymentIntentID,
		AmountCents:     &amount,
		Reason:          refund.Reason,
		IdempotencyKey:  "refund-" + refund.ID,
	}); err != nil {
		return nil, err
	}

	if err := s.refunds.SetStatus(ctx, refund.ID, domain.RefundStatusProcessed); err != nil {
		return nil, apperrors.MapError(err)
	}
	refund.Status = domain.RefundStatusProcessed

	// partial refunds leave the order paid
	if refund.AmountCents >= order.AmountCents {
		if err := s.orders.SetStatus(ctx, order.ID, domain.OrderStatusRefunded); err != nil {
			s.logger.Warn("order refund status update failed",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	s.appendAudit(ctx, domain.AuditRefundProcessed, actor.ID, refund.ID, map[string]any{
		"order_id":     order.ID,
		"amount_cents": refund.AmountCents,
	})
	s.publish(ctx, events.EventRefundProcessed, actor.ID, events.RefundProcessedPayload{
		RefundID:        refund.ID,
		OrderID:         order.ID,
		SessionID:       order.SessionID,
		AmountCents:     refund.AmountCents,
		Currency:        refund.Currency,
		BuyerPlatformID: s.buyerPlatformID(ctx, order),
	})
	return refund, nil
}

// Cancel abandons an outstanding refund request, unblocking future
// requests for the order. Only the requester may cancel.
func (s *RefundService) Cancel(ctx context.Context, actor domain.Actor, token string) error {
	pending, err := s.confirms.Consume(ctx, token)
	if err != nil {
		return err
	}
	if pending.Action != confirm.ActionProcessRefund || pending.RequesterID != actor.ID {
		return apperrors.NewForbidden("only the requester may cancel this refund")
	}
	if err := s.refunds.SetStatus(ctx, pending.TargetID, domain.RefundStatusCancelled); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *RefundService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

func (s *RefundService) getRefund(ctx context.Context, refundID string) (*domain.Refund, error) {
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("refund", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return refund, nil
}

func (s *RefundService) buyerPlatformID(ctx context.Context, order *domain.Order) string {
	buyer, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return ""
	}
	return buyer.PlatformID
}

func (s *RefundService) appendAudit(ctx context.Context, action domain.AuditAction, actorID, refundID string, details map[string]any) {
	if err := s.audits.Append(ctx, &domain.AuditLogEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: "refund",
		TargetID:   refundID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *RefundService) publish(ctx context.Context, eventType events.EventType, actorID string, payload interface{}) {
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
