package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/commerce-desk/internal/domain"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

func claimedTicket(t *testing.T, env *testEnv) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket, _, err := env.ticketSvc.Create(ctx, userActor, "custom-work")
	require.NoError(t, err)
	claimed, err := env.ticketSvc.Claim(ctx, supportActor, ticket.ID)
	require.NoError(t, err)
	return claimed
}

func TestCreateQuoteOnClaimedTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:     ticket.ID,
		AmountCents:  10000,
		DepositCents: 2500,
		Description:  "custom integration",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, quote.Status)
	assert.Equal(t, "EUR", quote.Currency)
	assert.WithinDuration(t, time.Now().Add(domain.QuoteValidity), quote.ExpiresAt, time.Minute)
}

func TestCreateQuoteValidatesAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	cases := []struct {
		name    string
		amount  int64
		deposit int64
	}{
		{"zero amount", 0, 0},
		{"negative amount", -100, 0},
		{"negative deposit", 1000, -1},
		{"deposit equals amount", 1000, 1000},
		{"deposit above amount", 1000, 1500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
				TicketID:     ticket.ID,
				AmountCents:  tc.amount,
				DepositCents: tc.deposit,
			})
			assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
		})
	}
}

func TestCreateQuoteRejectsUnquotableCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket, _, err := env.ticketSvc.Create(ctx, userActor, "support")
	require.NoError(t, err)
	_, err = env.ticketSvc.Claim(ctx, supportActor, ticket.ID)
	require.NoError(t, err)

	_, err = env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 1000,
	})
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestCreateQuoteRejectsOpenTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket, _, err := env.ticketSvc.Create(ctx, userActor, "custom-work")
	require.NoError(t, err)

	_, err = env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 1000,
	})
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestCreateQuoteSupersedesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	first, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	second, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 12000,
	})
	require.NoError(t, err)

	stale, err := env.quotes.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusRejected, stale.Status)

	fresh, err := env.quotes.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, fresh.Status)
}

func TestAcceptQuoteOpensCheckoutAndParksTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:     ticket.ID,
		AmountCents:  10000,
		DepositCents: 2500,
		Description:  "integration",
	})
	require.NoError(t, err)

	accepted, paymentURL, err := env.quoteSvc.Accept(ctx, userActor, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusAccepted, accepted.Status)
	assert.NotEmpty(t, paymentURL)

	// deposit, not the full amount, is charged up front
	require.Len(t, env.provider.sessions, 1)
	assert.Equal(t, int64(2500), env.provider.sessions[0].Items[0].AmountCents)
	assert.Equal(t, "quote", env.provider.lastMetadata["type"])

	updated, err := env.ticketSvc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusWaitingPayment, updated.Status)

	order, err := env.orders.GetBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderKindQuote, order.Kind)
	assert.Equal(t, int64(2500), order.AmountCents)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestAcceptQuoteOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	_, _, err = env.quoteSvc.Accept(ctx, supportActor, quote.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestQuoteDecisionsAreTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	_, err = env.quoteSvc.Reject(ctx, userActor, quote.ID)
	require.NoError(t, err)

	_, _, err = env.quoteSvc.Accept(ctx, userActor, quote.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))

	_, err = env.quoteSvc.Reject(ctx, userActor, quote.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestAcceptExpiredQuoteRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	env.quotes.mu.Lock()
	env.quotes.quotes[quote.ID].ExpiresAt = time.Now().Add(-time.Hour)
	env.quotes.mu.Unlock()

	_, _, err = env.quoteSvc.Accept(ctx, userActor, quote.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestRejectKeepsTicketClaimed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := claimedTicket(t, env)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
	})
	require.NoError(t, err)

	_, err = env.quoteSvc.Reject(ctx, userActor, quote.ID)
	require.NoError(t, err)

	current, err := env.ticketSvc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClaimed, current.Status)
}
