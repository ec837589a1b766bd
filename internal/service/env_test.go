package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/catalog"
	"github.com/spec-kit/commerce-desk/internal/config"
	"github.com/spec-kit/commerce-desk/internal/confirm"
	"github.com/spec-kit/commerce-desk/internal/cooldown"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/signedurl"
)

const testCatalogJSON = `{
  "products": [
    {"sku": "tool-pro", "name": "Pro Tool", "description": "Full tier", "priceCents": 4999, "deliverableFile": "files/tool-pro.zip"}
  ],
  "ticketCategories": [
    {"key": "custom-work", "name": "Custom Work", "questions": ["What do you need?", "Budget?"], "quotable": true},
    {"key": "support", "name": "Support", "questions": ["Describe the problem"], "quotable": false}
  ]
}`

var (
	userActor    = domain.Actor{ID: "plat-alice", Tag: "alice#1", Capabilities: []domain.Capability{domain.CapabilityUser}}
	supportActor = domain.Actor{ID: "plat-bob", Tag: "bob#2", Capabilities: []domain.Capability{domain.CapabilitySupport}}
	otherSupport = domain.Actor{ID: "plat-carol", Tag: "carol#3", Capabilities: []domain.Capability{domain.CapabilitySupport}}
	adminActor   = domain.Actor{ID: "plat-root", Tag: "root#0", Capabilities: []domain.Capability{domain.CapabilityAdmin}}
)

type testEnv struct {
	users       *fakeUserRepo
	tickets     *fakeTicketRepo
	assignments *fakeAssignmentRepo
	quotes      *fakeQuoteRepo
	orders      *fakeOrderRepo
	refunds     *fakeRefundRepo
	licenses    *fakeLicenseRepo
	archives    *fakeArchiveRepo
	audits      *fakeAuditRepo
	gateway     *fakeGateway
	provider    *fakeProvider
	scheduler   *noopScheduler
	confirms    *confirm.MemoryStore
	dispatcher  events.Dispatcher

	userSvc   *UserService
	ticketSvc *TicketService
	quoteSvc  *QuoteService
	orderSvc  *OrderService
	refundSvc *RefundService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := catalog.Parse([]byte(testCatalogJSON))
	require.NoError(t, err)

	env := &testEnv{
		users:       newFakeUserRepo(),
		tickets:     newFakeTicketRepo(),
		assignments: newFakeAssignmentRepo(),
		quotes:      newFakeQuoteRepo(),
		orders:      newFakeOrderRepo(),
		refunds:     newFakeRefundRepo(),
		licenses:    newFakeLicenseRepo(),
		archives:    newFakeArchiveRepo(),
		audits:      newFakeAuditRepo(),
		gateway:     newFakeGateway(),
		provider:    newFakeProvider(),
		scheduler:   &noopScheduler{},
		confirms:    confirm.NewMemoryStore(time.Minute),
		dispatcher:  events.NewInMemoryDispatcher(),
	}

	logger := zap.NewNop()
	vip := config.VIPConfig{SilverCents: 5000, GoldCents: 25000, DiamondCents: 100000}
	env.userSvc = NewUserService(env.users, env.audits, vip)

	env.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:     env.tickets,
		AssignmentRepo: env.assignments,
		ArchiveRepo:    env.archives,
		AuditRepo:      env.audits,
		UserRepo:       env.users,
		Catalog:        cat,
		Gateway:        env.gateway,
		Dispatcher:     env.dispatcher,
		Confirms:       env.confirms,
		Cooldowns:      cooldown.NewMemoryLimiter(0),
		Scheduler:      env.scheduler,
		Config: config.TicketConfig{
			CloseGraceSeconds: 10,
			MaxIntakeAnswers:  5,
			ArchiveChannelID:  "chan-archive",
		},
		Logger: logger,
	})

	env.quoteSvc = NewQuoteService(QuoteDependencies{
		QuoteRepo:      env.quotes,
		TicketRepo:     env.tickets,
		OrderRepo:      env.orders,
		UserRepo:       env.users,
		AssignmentRepo: env.assignments,
		AuditRepo:      env.audits,
		Catalog:        cat,
		Provider:       env.provider,
		Dispatcher:     env.dispatcher,
		Logger:         logger,
	})

	env.orderSvc = NewOrderService(OrderDependencies{
		OrderRepo:      env.orders,
		QuoteRepo:      env.quotes,
		TicketRepo:     env.tickets,
		LicenseRepo:    env.licenses,
		UserRepo:       env.users,
		AssignmentRepo: env.assignments,
		AuditRepo:      env.audits,
		UserService:    env.userSvc,
		Catalog:        cat,
		Provider:       env.provider,
		Signer:         signedurl.NewSigner("test-secret", time.Hour),
		Dispatcher:     env.dispatcher,
		Logger:         logger,
	})

	env.refundSvc = NewRefundService(RefundDependencies{
		RefundRepo: env.refunds,
		OrderRepo:  env.orders,
		UserRepo:   env.users,
		AuditRepo:  env.audits,
		Provider:   env.provider,
		Confirms:   env.confirms,
		Dispatcher: env.dispatcher,
		Logger:     logger,
	})

	NewNotificationService(env.gateway, cat, logger).Register(env.dispatcher)
	return env
}
