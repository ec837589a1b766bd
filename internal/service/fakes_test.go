package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/notify"
	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Upsert(_ context.Context, platformID, tag string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PlatformID == platformID {
			u.Tag = tag
			copied := *u
			return &copied, nil
		}
	}
	u := &domain.User{
		ID:         uuid.New().String(),
		PlatformID: platformID,
		Tag:        tag,
		CreatedAt:  time.Now(),
	}
	r.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByPlatformID(_ context.Context, platformID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PlatformID == platformID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) AddSpend(_ context.Context, id string, cents int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.TotalSpentCents += cents
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) RaiseVIPTier(_ context.Context, id string, tier domain.VIPTier) (*domain.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	changed := tier > u.VIPTier
	if changed {
		u.VIPTier = tier
	}
	copied := *u
	return &copied, changed, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == ticket.UserID && t.Status.IsOpen() {
			return repository.ErrOpenTicketExists
		}
	}
	ticket.ID = uuid.New().String()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) GetByChannelID(_ context.Context, channelID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ChannelID == channelID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) GetOpenByUserID(_ context.Context, userID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == userID && t.Status.IsOpen() {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) UpdateStatusIf(_ context.Context, id string, expected []domain.TicketStatus, next domain.TicketStatus) (*domain.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	matched := false
	for _, status := range expected {
		if t.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false, nil
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	if next == domain.TicketStatusClosed {
		now := time.Now()
		t.ClosedAt = &now
	}
	copied := *t
	return &copied, true, nil
}

func (r *fakeTicketRepo) SetResponsesOnce(_ context.Context, id string, responses []domain.IntakeResponse) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if t.Responses != nil {
		return false, nil
	}
	t.Responses = responses
	return true, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*domain.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[string]*domain.Assignment)}
}

func (r *fakeAssignmentRepo) Claim(_ context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if !a.Active {
			continue
		}
		if a.TicketID == ticketID {
			return nil, repository.ErrTicketAlreadyAssigned
		}
		if a.AssigneeID == assigneeID {
			return nil, repository.ErrAssigneeBusy
		}
	}
	a := &domain.Assignment{
		ID:         uuid.New().String(),
		TicketID:   ticketID,
		AssigneeID: assigneeID,
		Role:       role,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	r.assignments[a.ID] = a
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) Replace(_ context.Context, ticketID, assigneeID string, role domain.AssignmentRole) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, a := range r.assignments {
		if a.TicketID == ticketID && a.Active {
			a.Active = false
			a.ReleasedAt = &now
		}
	}
	a := &domain.Assignment{
		ID:         uuid.New().String(),
		TicketID:   ticketID,
		AssigneeID: assigneeID,
		Role:       role,
		Active:     true,
		CreatedAt:  now,
	}
	r.assignments[a.ID] = a
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) GetActiveByTicket(_ context.Context, ticketID string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.TicketID == ticketID && a.Active {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAssignmentRepo) GetActiveByAssignee(_ context.Context, assigneeID string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.AssigneeID == assigneeID && a.Active {
			copied := *a
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAssignmentRepo) Release(_ context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, a := range r.assignments {
		if a.TicketID == ticketID && a.Active {
			a.Active = false
			a.ReleasedAt = &now
		}
	}
	return nil
}

type fakeQuoteRepo struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: make(map[string]*domain.Quote)}
}

func (r *fakeQuoteRepo) Create(_ context.Context, quote *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quote.ID = uuid.New().String()
	quote.CreatedAt = time.Now()
	copied := *quote
	r.quotes[quote.ID] = &copied
	return nil
}

func (r *fakeQuoteRepo) GetByID(_ context.Context, id string) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *q
	return &copied, nil
}

func (r *fakeQuoteRepo) ListByTicket(_ context.Context, ticketID string, _ int) ([]domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Quote
	for _, q := range r.quotes {
		if q.TicketID == ticketID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQuoteRepo) DecideIfPending(_ context.Context, id string, next domain.QuoteStatus) (*domain.Quote, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	if q.Status != domain.QuoteStatusPending {
		return nil, false, nil
	}
	q.Status = next
	if next == domain.QuoteStatusAccepted {
		now := time.Now()
		q.AcceptedAt = &now
	}
	copied := *q
	return &copied, true, nil
}

func (r *fakeQuoteRepo) SupersedePending(_ context.Context, ticketID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var superseded []string
	for _, q := range r.quotes {
		if q.TicketID == ticketID && q.Status == domain.QuoteStatusPending {
			q.Status = domain.QuoteStatusRejected
			superseded = append(superseded, q.ID)
		}
	}
	return superseded, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.SessionID == order.SessionID {
			return repository.ErrSessionExists
		}
	}
	order.ID = uuid.New().String()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) GetBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.SessionID == sessionID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeOrderRepo) MarkPaidBySession(_ context.Context, sessionID, paymentIntentID string) (*domain.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.SessionID == sessionID && o.Status == domain.OrderStatusPending {
			o.Status = domain.OrderStatusPaid
			o.PaymentIntentID = paymentIntentID
			now := time.Now()
			o.PaidAt = &now
			copied := *o
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeOrderRepo) SetStatus(_ context.Context, id string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetLicenseKey(_ context.Context, id, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.LicenseKey = key
	return nil
}

type fakeRefundRepo struct {
	mu      sync.Mutex
	refunds map[string]*domain.Refund
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{refunds: make(map[string]*domain.Refund)}
}

func (r *fakeRefundRepo) Create(_ context.Context, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.refunds {
		if existing.OrderID == refund.OrderID && existing.Status.Outstanding() {
			return repository.ErrRefundOutstanding
		}
	}
	refund.ID = uuid.New().String()
	refund.CreatedAt = time.Now()
	copied := *refund
	r.refunds[refund.ID] = &copied
	return nil
}

func (r *fakeRefundRepo) GetByID(_ context.Context, id string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund, ok := r.refunds[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *refund
	return &copied, nil
}

func (r *fakeRefundRepo) GetOutstandingByOrder(_ context.Context, orderID string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, refund := range r.refunds {
		if refund.OrderID == orderID && refund.Status.Outstanding() {
			copied := *refund
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefundRepo) SetStatus(_ context.Context, id string, status domain.RefundStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund, ok := r.refunds[id]
	if !ok {
		return pgx.ErrNoRows
	}
	refund.Status = status
	if status == domain.RefundStatusProcessed {
		now := time.Now()
		refund.ProcessedAt = &now
	}
	return nil
}

type fakeLicenseRepo struct {
	mu       sync.Mutex
	licenses map[string]*domain.License
}

func newFakeLicenseRepo() *fakeLicenseRepo {
	return &fakeLicenseRepo{licenses: make(map[string]*domain.License)}
}

func (r *fakeLicenseRepo) Create(_ context.Context, license *domain.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	license.CreatedAt = time.Now()
	copied := *license
	r.licenses[license.Key] = &copied
	return nil
}

func (r *fakeLicenseRepo) GetByKey(_ context.Context, key string) (*domain.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	license, ok := r.licenses[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *license
	return &copied, nil
}

func (r *fakeLicenseRepo) Revoke(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	license, ok := r.licenses[key]
	if !ok {
		return pgx.ErrNoRows
	}
	license.Revoked = true
	return nil
}

type fakeArchiveRepo struct {
	mu       sync.Mutex
	archives []*domain.Archive
}

func newFakeArchiveRepo() *fakeArchiveRepo { return &fakeArchiveRepo{} }

func (r *fakeArchiveRepo) Create(_ context.Context, archive *domain.Archive) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	archive.ID = uuid.New().String()
	archive.CreatedAt = time.Now()
	copied := *archive
	r.archives = append(r.archives, &copied)
	return nil
}

func (r *fakeArchiveRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Archive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.archives) - 1; i >= 0; i-- {
		if r.archives[i].TicketID == ticketID {
			copied := *r.archives[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (r *fakeAuditRepo) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ repository.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditLogEntry{}, r.entries...), nil
}

func (r *fakeAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeGateway struct {
	mu           sync.Mutex
	nextChannel  int
	createErr    error
	deleted      []string
	channelPosts map[string][]string
	directs      map[string][]string
	transcript   []domain.TranscriptMessage
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		channelPosts: make(map[string][]string),
		directs:      make(map[string][]string),
	}
}

func (g *fakeGateway) CreateTicketChannel(_ context.Context, _ notify.ChannelRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	g.nextChannel++
	return fmt.Sprintf("chan-%d", g.nextChannel), nil
}

func (g *fakeGateway) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) PostToChannel(_ context.Context, channelID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channelPosts[channelID] = append(g.channelPosts[channelID], content)
	return nil
}

func (g *fakeGateway) SendDirectMessage(_ context.Context, platformUserID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.directs[platformUserID] = append(g.directs[platformUserID], content)
	return nil
}

func (g *fakeGateway) FetchChannelMessages(_ context.Context, _ string) ([]domain.TranscriptMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.TranscriptMessage{}, g.transcript...), nil
}

type fakeProvider struct {
	mu           sync.Mutex
	nextSession  int
	sessions     []payments.CheckoutRequest
	refunds      []payments.RefundRequest
	refundErr    error
	lastMetadata map[string]string
}

func newFakeProvider() *fakeProvider { return &fakeProvider{} }

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSession++
	p.sessions = append(p.sessions, req)
	p.lastMetadata = req.Metadata
	id := fmt.Sprintf("cs_%d", p.nextSession)
	return payments.CheckoutSession{
		ID:  id,
		URL: "https://pay.example/" + id,
	}, nil
}

func (p *fakeProvider) CreateRefund(_ context.Context, req payments.RefundRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunds = append(p.refunds, req)
	return nil
}

func (p *fakeProvider) VerifyWebhook(_ []byte, _ string) (payments.Event, error) {
	return payments.Event{Type: payments.EventIgnored}, nil
}

type noopScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (s *noopScheduler) Schedule(ticketID, _ string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, ticketID)
}

func (s *noopScheduler) Cancel(ticketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.scheduled {
		if id == ticketID {
			s.scheduled = append(s.scheduled[:i], s.scheduled[i+1:]...)
			s.cancelled = append(s.cancelled, ticketID)
			return true
		}
	}
	return false
}
