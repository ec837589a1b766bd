package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/payments"
)

// Walks the full custom-work path: open ticket, intake answers, claim,
// quote, acceptance, settlement, close, archive.
func TestCustomWorkLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket, questions, err := env.ticketSvc.Create(ctx, userActor, "custom-work")
	require.NoError(t, err)
	require.Len(t, questions, 2)

	_, err = env.ticketSvc.RecordResponses(ctx, userActor, ticket.ID, []domain.IntakeResponse{
		{Question: questions[0], Answer: "A billing integration"},
		{Question: questions[1], Answer: "Around 100 EUR"},
	})
	require.NoError(t, err)

	_, err = env.ticketSvc.Claim(ctx, supportActor, ticket.ID)
	require.NoError(t, err)

	_, err = env.ticketSvc.StartProgress(ctx, supportActor, ticket.ID)
	require.NoError(t, err)

	quote, err := env.quoteSvc.Create(ctx, supportActor, QuoteCreateInput{
		TicketID:    ticket.ID,
		AmountCents: 10000,
		Description: "billing integration",
	})
	require.NoError(t, err)

	_, paymentURL, err := env.quoteSvc.Accept(ctx, userActor, quote.ID)
	require.NoError(t, err)
	require.NotEmpty(t, paymentURL)

	waiting, err := env.ticketSvc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusWaitingPayment, waiting.Status)

	order, err := env.orders.GetBySessionID(ctx, "cs_1")
	require.NoError(t, err)
	require.Equal(t, int64(10000), order.AmountCents)

	require.NoError(t, env.orderSvc.HandleWebhookEvent(ctx, payments.Event{
		Type:            payments.EventCheckoutCompleted,
		SessionID:       order.SessionID,
		PaymentIntentID: "pi_flow",
	}))

	completed, err := env.ticketSvc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, completed.Status)

	// buyer spend accrued and VIP ladder climbed
	buyer, err := env.users.GetByPlatformID(ctx, userActor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), buyer.TotalSpentCents)
	assert.Equal(t, domain.VIPTierSilver, buyer.VIPTier)

	// audit trail covers the whole journey
	actions := env.audits.actions()
	assert.Contains(t, actions, domain.AuditTicketCreated)
	assert.Contains(t, actions, domain.AuditTicketClaimed)
	assert.Contains(t, actions, domain.AuditQuoteCreated)
	assert.Contains(t, actions, domain.AuditQuoteAccepted)
	assert.Contains(t, actions, domain.AuditOrderPaid)
	assert.Contains(t, actions, domain.AuditVIPChanged)
}
