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
	"github.com/spec-kit/commerce-desk/internal/config"
	"github.com/spec-kit/commerce-desk/internal/confirm"
	"github.com/spec-kit/commerce-desk/internal/cooldown"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/notify"
	"github.com/spec-kit/commerce-desk/internal/repository"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// Scheduler queues deferred channel deletions.
type Scheduler interface {
	Schedule(ticketID, channelID string, delay time.Duration)
	Cancel(ticketID string) bool
}

// TicketService coordinates the ticket lifecycle from channel creation
// through archival.
type TicketService struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	archives    repository.ArchiveRepository
	audits      repository.AuditLogRepository
	users       repository.UserRepository
	catalog     *catalog.Catalog
	gateway     notify.Gateway
	dispatcher  events.Dispatcher
	confirms    confirm.Store
	cooldowns   cooldown.Limiter
	scheduler   Scheduler
	cfg         config.TicketConfig
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	ArchiveRepo    repository.ArchiveRepository
	AuditRepo      repository.AuditLogRepository
	UserRepo       repository.UserRepository
	Catalog        *catalog.Catalog
	Gateway        notify.Gateway
	Dispatcher     events.Dispatcher
	Confirms       confirm.Store
	Cooldowns      cooldown.Limiter
	Scheduler      Scheduler
	Config         config.TicketConfig
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		assignments: deps.AssignmentRepo,
		archives:    deps.ArchiveRepo,
		audits:      deps.AuditRepo,
		users:       deps.UserRepo,
		catalog:     deps.Catalog,
		gateway:     deps.Gateway,
		dispatcher:  deps.Dispatcher,
		confirms:    deps.Confirms,
		cooldowns:   deps.Cooldowns,
		scheduler:   deps.Scheduler,
		cfg:         deps.Config,
		logger:      deps.Logger,
	}
}

// Create opens a ticket: allocates the backing channel, inserts the row and
// announces it. A user may hold at most one open ticket.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, categoryKey string) (*domain.Ticket, []string, error) {
	allowed, err := s.cooldowns.Acquire(ctx, "ticket_create", actor.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, nil, apperrors.NewInvalidState("command is on cooldown, try again shortly", nil)
	}

	category, err := s.catalog.Category(categoryKey)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.Upsert(ctx, actor.ID, actor.Tag)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if existing, err := s.tickets.GetOpenByUserID(ctx, user.ID); err == nil && existing != nil {
		return nil, nil, apperrors.NewInvalidState("an open ticket already exists", map[string]any{
			"ticket_id": existing.ID,
		})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	ticketID := uuid.New().String()
	channelID, err := s.gateway.CreateTicketChannel(ctx, notify.ChannelRequest{
		TicketID:       ticketID,
		PlatformUserID: actor.ID,
		CategoryKey:    category.Key,
		Topic:          category.Name + " | " + actor.Tag,
	})
	if err != nil {
		return nil, nil, err
	}

	ticket := &domain.Ticket{
		UserID:    user.ID,
		Category:  category.Key,
		ChannelID: channelID,
		Status:    domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		// lost the race on the one-open-ticket index; tear the channel down
		if derr := s.gateway.DeleteChannel(ctx, channelID); derr != nil {
			s.logger.Warn("orphaned ticket channel", zap.String("channel_id", channelID), zap.Error(derr))
		}
		if errors.Is(err, repository.ErrOpenTicketExists) {
			return nil, nil, apperrors.NewInvalidState("an open ticket already exists", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}

	s.appendAudit(ctx, domain.AuditTicketCreated, actor.ID, ticket.ID, map[string]any{
		"category":   category.Key,
		"channel_id": channelID,
	})
	s.publish(ctx, events.EventTicketCreated, actor.ID, events.TicketCreatedPayload{
		TicketID:        ticket.ID,
		Category:        category.Key,
		ChannelID:       channelID,
		OwnerPlatformID: actor.ID,
	})
	return ticket, category.Questions, nil
}

// RecordResponses stores the intake answers. Answers are written once; a
// second submission is rejected.
func (s *TicketService) RecordResponses(ctx context.Context, actor domain.Actor, ticketID string, responses []domain.IntakeResponse) (*domain.Ticket, error) {
	if len(responses) == 0 {
		return nil, apperrors.NewInvalidInput("at least one answer is required", nil)
	}
	if len(responses) > s.cfg.MaxIntakeAnswers {
		return nil, apperrors.NewInvalidInput("too many answers", map[string]any{
			"max": s.cfg.MaxIntakeAnswers,
		})
	}
	for _, r := range responses {
		if strings.TrimSpace(r.Answer) == "" {
			return nil, apperrors.NewInvalidInput("answers must not be blank", nil)
		}
	}

	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	owner, err := s.isOwner(ctx, ticket, actor)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, apperrors.NewForbidden("only the ticket owner may answer intake questions")
	}
	if !ticket.Status.IsOpen() {
		return nil, apperrors.NewInvalidState("ticket no longer accepts answers", nil)
	}

	stored, err := s.tickets.SetResponsesOnce(ctx, ticket.ID, responses)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !stored {
		return nil, apperrors.NewInvalidState("intake answers were already submitted", nil)
	}
	ticket.Responses = responses

	s.appendAudit(ctx, domain.AuditTicketAnswered, actor.ID, ticket.ID, map[string]any{
		"answers": len(responses),
	})
	return ticket, nil
}

// Claim assigns an open ticket to a support actor. An actor may hold only
// one ticket at a time; admin reassignment goes through Reassign instead.
func (s *TicketService) Claim(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.HasAny(domain.CapabilitySupport, domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("claiming requires support capability")
	}

	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewInvalidState("ticket is not open for claiming", map[string]any{
			"status": string(ticket.Status),
		})
	}

	role := domain.AssignmentRoleSupport
	if actor.Has(domain.CapabilityAdmin) {
		role = domain.AssignmentRoleAdmin
	}
	if _, err := s.assignments.Claim(ctx, ticket.ID, actor.ID, role); err != nil {
		switch {
		case errors.Is(err, repository.ErrAssigneeBusy):
			return nil, apperrors.NewInvalidState("you already hold another open ticket", nil)
		case errors.Is(err, repository.ErrTicketAlreadyAssigned):
			return nil, apperrors.NewInvalidState("ticket is already claimed", nil)
		default:
			return nil, apperrors.MapError(err)
		}
	}

	updated, ok, err := s.tickets.UpdateStatusIf(ctx, ticket.ID,
		[]domain.TicketStatus{domain.TicketStatusOpen}, domain.TicketStatusClaimed)
	if err != nil {
		s.releaseAssignment(ctx, ticket.ID)
		return nil, apperrors.MapError(err)
	}
	if !ok {
		// Lost the status race (e.g. a concurrent close); the assignment
		// just created would otherwise keep the actor marked busy.
		s.releaseAssignment(ctx, ticket.ID)
		return nil, apperrors.NewInvalidState("ticket is not open for claiming", nil)
	}

	ownerPlatformID := s.ownerPlatformID(ctx, updated)
	s.appendAudit(ctx, domain.AuditTicketClaimed, actor.ID, updated.ID, nil)
	s.publish(ctx, events.EventTicketClaimed, actor.ID, events.TicketClaimedPayload{
		TicketID:        updated.ID,
		ChannelID:       updated.ChannelID,
		AssigneeID:      actor.ID,
		AssigneeTag:     actor.Tag,
		OwnerPlatformID: ownerPlatformID,
	})
	return updated, nil
}

// Reassign hands a claimed ticket to another support actor. Admin-only;
// unlike Claim it replaces the current assignment and skips the
// one-ticket-per-assignee guard.
func (s *TicketService) Reassign(ctx context.Context, actor domain.Actor, ticketID, assigneeID, assigneeTag string) (*domain.Ticket, error) {
	if !actor.Has(domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("reassignment requires admin capability")
	}

	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch ticket.Status {
	case domain.TicketStatusClaimed, domain.TicketStatusInProgress, domain.TicketStatusWaitingPayment:
	default:
		return nil, apperrors.NewInvalidState("ticket has no assignment to replace", map[string]any{
			"status": string(ticket.Status),
		})
	}

	if _, err := s.assignments.Replace(ctx, ticket.ID, assigneeID, domain.AssignmentRoleSupport); err != nil {
		return nil, apperrors.MapError(err)
	}

	ownerPlatformID := s.ownerPlatformID(ctx, ticket)
	s.appendAudit(ctx, domain.AuditTicketReassigned, actor.ID, ticket.ID, map[string]any{
		"assignee_id": assigneeID,
	})
	s.publish(ctx, events.EventTicketReassigned, actor.ID, events.TicketClaimedPayload{
		TicketID:        ticket.ID,
		ChannelID:       ticket.ChannelID,
		AssigneeID:      assigneeID,
		AssigneeTag:     assigneeTag,
		OwnerPlatformID: ownerPlatformID,
		Reassigned:      true,
	})
	return ticket, nil
}

// StartProgress moves a claimed ticket to in_progress. Assignee only.
func (s *TicketService) StartProgress(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignee(ctx, ticket, actor); err != nil {
		return nil, err
	}

	updated, ok, err := s.tickets.UpdateStatusIf(ctx, ticket.ID,
		[]domain.TicketStatus{domain.TicketStatusClaimed}, domain.TicketStatusInProgress)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewInvalidState("ticket cannot move to in progress", map[string]any{
			"status": string(ticket.Status),
		})
	}

	s.appendAudit(ctx, domain.AuditTicketProgress, actor.ID, updated.ID, nil)
	return updated, nil
}

// RequestClose starts the two-step close: a one-shot confirmation token is
// issued, bound to the requester.
func (s *TicketService) RequestClose(ctx context.Context, actor domain.Actor, ticketID, reason string) (string, error) {
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if ticket.Status.Terminal() {
		return "", apperrors.NewInvalidState("ticket is already closed", nil)
	}
	if err := s.requireCloser(ctx, ticket, actor); err != nil {
		return "", err
	}

	token, err := s.confirms.Issue(ctx, confirm.Pending{
		Action:      confirm.ActionCloseTicket,
		TargetID:    ticket.ID,
		RequesterID: actor.ID,
		Reason:      reason,
	})
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmClose completes the two-step close. Only the requester may
// confirm. The channel transcript is archived before the channel itself is
// queued for deletion after the grace period.
func (s *TicketService) ConfirmClose(ctx context.Context, actor domain.Actor, token string) (*domain.Ticket, error) {
	pending, err := s.confirms.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if pending.Action != confirm.ActionCloseTicket {
		return nil, apperrors.NewInvalidState("token does not confirm a ticket close", nil)
	}
	if pending.RequesterID != actor.ID {
		return nil, apperrors.NewForbidden("only the requester may confirm this close")
	}

	ticket, err := s.get(ctx, pending.TargetID)
	if err != nil {
		return nil, err
	}

	messages, err := s.gateway.FetchChannelMessages(ctx, ticket.ChannelID)
	if err != nil {
		s.logger.Warn("transcript export failed, archiving without messages",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		messages = nil
	}

	updated, ok, err := s.tickets.UpdateStatusIf(ctx, ticket.ID,
		append([]domain.TicketStatus{}, domain.OpenTicketStatuses...), domain.TicketStatusClosed)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !ok {
		return nil, apperrors.NewInvalidState("ticket is already closed", nil)
	}

	s.releaseAssignment(ctx, updated.ID)

	ownerPlatformID := s.ownerPlatformID(ctx, updated)
	closedAt := time.Now().UTC()
	if updated.ClosedAt != nil {
		closedAt = *updated.ClosedAt
	}
	archive := &domain.Archive{
		TicketID: updated.ID,
		Transcript: domain.Transcript{
			TicketID: updated.ID,
			Category: updated.Category,
			Client:   ownerPlatformID,
			OpenedAt: updated.CreatedAt,
			ClosedAt: closedAt,
			Messages: messages,
		},
		ClosedByID:  actor.ID,
		CloseReason: pending.Reason,
	}
	if err := s.archives.Create(ctx, archive); err != nil {
		s.logger.Error("transcript archive write failed",
			zap.String("ticket_id", updated.ID), zap.Error(err))
	}

	s.postArchiveSummary(ctx, updated, actor, ownerPlatformID, closedAt, pending.Reason, len(messages))

	s.scheduler.Schedule(updated.ID, updated.ChannelID, s.cfg.CloseGrace())

	s.appendAudit(ctx, domain.AuditTicketClosed, actor.ID, updated.ID, map[string]any{
		"reason": pending.Reason,
	})
	s.publish(ctx, events.EventTicketClosed, actor.ID, events.TicketClosedPayload{
		TicketID:        updated.ID,
		ChannelID:       updated.ChannelID,
		Reason:          pending.Reason,
		ClosedByID:      actor.ID,
		OwnerPlatformID: ownerPlatformID,
		MessageCount:    len(messages),
	})
	return updated, nil
}

// PreserveChannel cancels the pending channel deletion of a closed ticket
// so an admin can keep the conversation around. Only works inside the
// grace window; once the timer has fired the channel is gone.
func (s *TicketService) PreserveChannel(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Has(domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("preserving a channel requires admin capability")
	}
	ticket, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidState("only closed tickets have a pending channel deletion", nil)
	}
	if !s.scheduler.Cancel(ticket.ID) {
		return nil, apperrors.NewInvalidState("no pending channel deletion for this ticket", nil)
	}

	s.appendAudit(ctx, domain.AuditChannelPreserved, actor.ID, ticket.ID, map[string]any{
		"channel_id": ticket.ChannelID,
	})
	return ticket, nil
}

// CancelClose abandons a pending close confirmation. Only the requester
// may cancel it; consuming the token makes later confirmation impossible.
func (s *TicketService) CancelClose(ctx context.Context, actor domain.Actor, token string) error {
	pending, err := s.confirms.Consume(ctx, token)
	if err != nil {
		return err
	}
	if pending.Action != confirm.ActionCloseTicket || pending.RequesterID != actor.ID {
		return apperrors.NewForbidden("only the requester may cancel this close")
	}
	return nil
}

// Get loads a ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.get(ctx, ticketID)
}

// GetByChannel resolves the ticket behind a chat channel.
func (s *TicketService) GetByChannel(ctx context.Context, channelID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByChannelID(ctx, channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// List returns tickets matching the admin filter.
func (s *TicketService) List(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !actor.HasAny(domain.CapabilitySupport, domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("listing tickets requires support capability")
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) isOwner(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (bool, error) {
	owner, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}
	return owner.PlatformID == actor.ID, nil
}

func (s *TicketService) requireAssignee(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) error {
	assignment, err := s.assignments.GetActiveByTicket(ctx, ticket.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidState("ticket has no active assignment", nil)
		}
		return apperrors.MapError(err)
	}
	if assignment.AssigneeID != actor.ID && !actor.Has(domain.CapabilityAdmin) {
		return apperrors.NewForbidden("only the assignee may do this")
	}
	return nil
}

func (s *TicketService) requireCloser(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) error {
	if actor.Has(domain.CapabilityAdmin) {
		return nil
	}
	owner, err := s.isOwner(ctx, ticket, actor)
	if err != nil {
		return err
	}
	if owner {
		return nil
	}
	if assignment, err := s.assignments.GetActiveByTicket(ctx, ticket.ID); err == nil && assignment.AssigneeID == actor.ID {
		return nil
	}
	return apperrors.NewForbidden("only the owner, assignee or an admin may close a ticket")
}

func (s *TicketService) releaseAssignment(ctx context.Context, ticketID string) {
	if err := s.assignments.Release(ctx, ticketID); err != nil {
		s.logger.Warn("assignment release failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

// postArchiveSummary drops a closure digest into the configured archive
// channel. Best-effort, like every other outbound notification.
func (s *TicketService) postArchiveSummary(ctx context.Context, ticket *domain.Ticket, closedBy domain.Actor, ownerPlatformID string, closedAt time.Time, reason string, messageCount int) {
	if s.cfg.ArchiveChannelID == "" {
		return
	}
	categoryName := ticket.Category
	if category, err := s.catalog.Category(ticket.Category); err == nil {
		categoryName = category.Name
	}
	if reason == "" {
		reason = "not specified"
	}
	closer := closedBy.Tag
	if closer == "" {
		closer = closedBy.ID
	}
	summary := fmt.Sprintf(
		"Ticket archived: %s\nCategory: %s\nClient: %s\nClosed by: %s\nOpened: %s\nClosed: %s\nMessages: %d\nReason: %s",
		ticket.ID, categoryName, ownerPlatformID, closer,
		ticket.CreatedAt.UTC().Format(time.RFC3339), closedAt.Format(time.RFC3339),
		messageCount, reason)
	if err := s.gateway.PostToChannel(ctx, s.cfg.ArchiveChannelID, summary); err != nil {
		s.logger.Warn("archive summary post failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (s *TicketService) ownerPlatformID(ctx context.Context, ticket *domain.Ticket) string {
	owner, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return ""
	}
	return owner.PlatformID
}

func (s *TicketService) appendAudit(ctx context.Context, action domain.AuditAction, actorID, ticketID string, details map[string]any) {
	if err := s.audits.Append(ctx, &domain.AuditLogEntry{
		Action:     action,
		ActorID:    actorID,
		TargetType: "ticket",
		TargetID:   ticketID,
		Details:    details,
	}); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actorID string, payload interface{}) {
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
