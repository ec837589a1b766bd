package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/catalog"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/repository"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// QuoteService manages quotes on custom-work tickets and the payment
// hand-off when a quote is accepted.
type QuoteService struct {
	quotes      repository.QuoteRepository
	tickets     repository.TicketRepository
	orders      repository.OrderRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	audits      repository.AuditLogRepository
	catalog     *catalog.Catalog
	provider    payments.Provider
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// QuoteDependencies bundles collaborators for the quote service.
type QuoteDependencies struct {
	QuoteRepo      repository.QuoteRepository
	TicketRepo     repository.TicketRepository
	OrderRepo      repository.OrderRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	AuditRepo      repository.AuditLogRepository
	Catalog        *catalog.Catalog
	Provider       payments.Provider
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// QuoteCreateInput describes a new quote.
type QuoteCreateInput struct {
	TicketID     string
	AmountCents  int64
	DepositCents int64
	Currency     string
	Description  string
}

// NewQuoteService constructs the service.
func NewQuoteService(deps QuoteDependencies) *QuoteService {
	return &QuoteService{
		quotes:      deps.QuoteRepo,
		tickets:     deps.TicketRepo,
		orders:      deps.OrderRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		audits:      deps.AuditRepo,
		catalog:     deps.Catalog,
		provider:    deps.Provider,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Create issues a quote on a claimed ticket. Any still-pending quote on
// the ticket is superseded, so at most one quote is ever actionable.
func (s *QuoteService) Create(ctx context.Context, actor domain.Actor, input QuoteCreateInput) (*domain.Quote, error) {
	if !actor.HasAny(domain.CapabilitySupport, domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("quoting requires support capability")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.NewInvalidInput("quote amount must be positive", nil)
	}
	if input.DepositCents < 0 || input.DepositCents >= input.AmountCents {
		return nil, apperrors.NewInvalidInput("deposit must be at least zero and below the quote amount", map[string]any{
			"amount_cents":  input.AmountCents,
			"deposit_cents": input.DepositCents,
		})
	}

	ticket, err := s.getTicket(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusClaimed, domain.TicketStatusInProgress:
	default:
		return nil, apperrors.NewInvalidState("ticket is not in a quotable state", map[string]any{
			"status": string(ticket.Status),
		})
	}

	category, err := s.catalog.Category(ticket.Category)
	if err != nil {
		return nil, err
	}
	if !category.Quotable {
		return nil, apperrors.NewInvalidState("ticket category does not accept quotes", map[string]any{
			"category": category.Key,
		})
	}

	if assignment, err := s.assignments.GetActiveByTicket(ctx, ticket.ID); err == nil {
		if assignment.AssigneeID != actor.ID && !actor.Has(domain.CapabilityAdmin) {
			return nil, apperrors.NewForbidden("only the assignee may quote this ticket")
		}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	superseded, err := s.quotes.SupersedePending(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, id := range superseded {
		s.appendAudit(ctx, domain.AuditQuoteSuperseded, actor.ID, id, map[string]any{
			"ticket_id": ticket.ID,
		})
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "EUR"
	}
	quote := &domain.Quote{
		TicketID:     ticket.ID,
		AmountCents:  input.AmountCents,
		DepositCents: input.DepositCents,
		Currency:     currency,
		Description:  input.Description,
		Status:       domain.QuoteStatusPending,
		ExpiresAt:    time.Now().UTC().Add(domain.QuoteValidity),
	}
	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.appendAudit(ctx, domain.AuditQuoteCreated, actor.ID, quote.ID, map[string]any{
		"ticket_id":     ticket.ID,
		"amount_cents":  quote.AmountCents,
		"deposit_cents": quote.DepositCents,
	})
	s.publish(ctx, events.EventQuoteCreated, actor.ID, events.QuoteCreatedPayload{
		QuoteID:         quote.ID,
		TicketID:        ticket.ID,
		ChannelID:       ticket.ChannelID,
		AmountCents:     quote.AmountCents,
		DepositCents:    quote.DepositCents,
		Currency:        quote.Currency,
		Description:     quote.Description,
		OwnerPlatformID: s.ownerPlatformID(ctx, ticket),
	})
	return quote, nil
}

// Accept moves a pending quote to accepted, opens a checkout session for
// the deposit (or full amount when no deposit is set) and parks the ticket
// in waiting_payment. Only the ticket owner may accept.
func (s *QuoteService) Accept(ctx context.Context, actor domain.Actor, quoteID string) (*domain.Quote, string, error) {
	quote, ticket, err := s.loadForDecision(ctx, actor, quoteID)
	if err != nil {
		return nil, "", err
	}
	if quote.Expired(time.Now().UTC()) {
		return nil, "", apperrors.NewInvalidState("quote has expired", map[string]any{
			"expired_at": quote.ExpiresAt,
		})
	}

	updated, ok, err := s.quotes.DecideIfPending(ctx, quote.ID, domain.QuoteStatusAccepted)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}
	if !ok {
		return nil, "", apperrors.NewInvalidState("quote was already decided", nil)
	}

	chargeCents := updated.AmountCents
	description := updated.Description
	if updated.DepositCents > 0 {
		chargeCents = updated.DepositCents
		description = fmt.Sprintf("Deposit for: %s", updated.Description)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		Currency: updated.Currency,
		Items: []payments.CheckoutItem{{
			Name:        "Custom work quote",
			Description: description,
			AmountCents: chargeCents,
			Quantity:    1,
		}},
		Metadata: map[string]string{
			"type":             "quote",
			"quote_id":         updated.ID,
			"ticket_id":        ticket.ID,
			"platform_user_id": actor.ID,
		},
		IdempotencyKey: "quote-accept-" + updated.ID,
	})
	if err != nil {
		return nil, "", err
	}

	order := &domain.Order{
		UserID:      ticket.UserID,
		Kind:        domain.OrderKindQuote,
		QuoteID:     updated.ID,
		AmountCents: chargeCents,
		Currency:    updated.Currency,
		Status:      domain.OrderStatusPending,
		SessionID:   session.ID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, "", apperrors.MapError(err)
	}

	if _, ok, err := s.tickets.UpdateStatusIf(ctx, ticket.ID,
		[]domain.TicketStatus{domain.TicketStatusClaimed, domain.TicketStatusInProgress},
		domain.TicketStatusWaitingPayment); err != nil {
		return nil, "", apperrors.MapError(err)
	} else if !ok {
		s.logger.Warn("ticket state moved during quote acceptance",
			zap.String("ticket_id", ticket.ID), zap.String("quote_id", updated.ID))
	}

	s.appendAudit(ctx, domain.AuditQuoteAccepted, actor.ID, updated.ID, map[string]any{
		"ticket_id":    ticket.ID,
		"order_id":     order.ID,
		"charge_cents": chargeCents,
	})
	s.publish(ctx, events.EventQuoteAccepted, actor.ID, events.QuoteDecisionPayload{
		QuoteID:     updated.ID,
		TicketID:    ticket.ID,
		ChannelID:   ticket.ChannelID,
		AmountCents: chargeCents,
		Currency:    updated.Currency,
		SessionID:   session.ID,
		PaymentURL:  session.URL,
	})
	return updated, session.URL, nil
}

// Reject moves a pending quote to rejected. Only the ticket owner may
// reject; the ticket stays claimed so a new quote can follow.
func (s *QuoteService) Reject(ctx context.Context, actor domain.Actor, quoteID string) (*domain.Quote, error) {
	quote, ticket, err := s.loadForDecision(ctx, actor, quoteID)
	if err != nil {
		return nil, err
	}

	updated, ok, err := s.quotes.DecideIfPending(ctx, quote.ID, domain.QuoteStatusRejected)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewInvalidState("quote was already decided", nil)
	}

	s.appendAudit(ctx, domain.AuditQuoteRejected, actor.ID, updated.ID, map[string]any{
		"ticket_id": ticket.ID,
	})
	s.publish(ctx, events.EventQuoteRejected, actor.ID, events.QuoteDecisionPayload{
		QuoteID:     updated.ID,
		TicketID:    ticket.ID,
		ChannelID:   ticket.ChannelID,
		AmountCents: updated.AmountCents,
		Currency:    updated.Currency,
	})
	return updated, nil
}

// List returns the ticket's quotes, newest first.
func (s *QuoteService) List(ctx context.Context, ticketID string, limit int) ([]domain.Quote, error) {
	quotes, err := s.quotes.ListByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return quotes, nil
}

func (s *QuoteService) loadForDecision(ctx context.Context, actor domain.Actor, quoteID string) (*domain.Quote, *domain.Ticket, error) {
	quote, err := s.quotes.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("quote", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}
	if quote.Status.Terminal() {
		return nil, nil, apperrors.NewInvalidState("quote was already decided", map[string]any{
			"status": string(quote.Status),
		})
	}

	ticket, err := s.getTicket(ctx, quote.TicketID)
	if err != nil {
		return nil, nil, err
	}

	owner, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if owner.PlatformID != actor.ID {
		return nil, nil, apperrors.NewForbidden("only the ticket owner may decide a quote")
	}
	return quote, ticket, nil
}

func (s *QuoteService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *QuoteService) ownerPlatformID(ctx context.Context, ticket *domain.Ticket) string {
	owner, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return ""
	}
	return owner.PlatformID
}

func (s *QuoteService) appendAudit(ctx context.Context, action domain.AuditAction, actorID, quoteID string, details map[string]any) {
	if err := s.audits.Append(ctx, &domain.AuditLogEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: "quote",
		TargetID:   quoteID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *QuoteService) publish(ctx context.Context, eventType events.EventType, actorID string, payload interface{}) {
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
