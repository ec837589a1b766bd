package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/payments"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

func paidOrder(t *testing.T, env *testEnv) *domain.Order {
	t.Helper()
	ctx := context.Background()
	order, _, err := env.orderSvc.CheckoutProduct(ctx, userActor, "tool-pro")
	require.NoError(t, err)
	require.NoError(t, env.orderSvc.HandleWebhookEvent(ctx, payments.Event{
		Type:            payments.EventCheckoutCompleted,
		SessionID:       order.SessionID,
		PaymentIntentID: "pi_1",
	}))
	paid, err := env.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	return paid
}

func TestRefundRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	order := paidOrder(t, env)

	_, _, err := env.refundSvc.Request(context.Background(), supportActor, order.ID, nil, "")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestRefundFullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	refund, token, err := env.refundSvc.Request(ctx, adminActor, order.ID, nil, "duplicate purchase")
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusRequested, refund.Status)
	assert.Equal(t, order.AmountCents, refund.AmountCents)

	processed, err := env.refundSvc.Confirm(ctx, adminActor, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, processed.Status)

	require.Len(t, env.provider.refunds, 1)
	assert.Equal(t, "pi_1", env.provider.refunds[0].PaymentIntentID)
	assert.Equal(t, order.AmountCents, *env.provider.refunds[0].AmountCents)

	refunded, err := env.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)

	// the buyer hears about it
	assert.NotEmpty(t, env.gateway.directs[userActor.ID])
}

func TestPartialRefundKeepsOrderPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	partial := int64(1000)
	_, token, err := env.refundSvc.Request(ctx, adminActor, order.ID, &partial, "goodwill")
	require.NoError(t, err)

	_, err = env.refundSvc.Confirm(ctx, adminActor, token)
	require.NoError(t, err)

	current, err := env.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, current.Status)
}

func TestRefundAmountValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	tooMuch := order.AmountCents + 1
	_, _, err := env.refundSvc.Request(ctx, adminActor, order.ID, &tooMuch, "")
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	zero := int64(0)
	_, _, err = env.refundSvc.Request(ctx, adminActor, order.ID, &zero, "")
	assert.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestRefundRejectsUnpaidOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, _, err := env.orderSvc.CheckoutProduct(ctx, userActor, "tool-pro")
	require.NoError(t, err)

	_, _, err = env.refundSvc.Request(ctx, adminActor, order.ID, nil, "")
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestOnlyOneOutstandingRefundPerOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	_, _, err := env.refundSvc.Request(ctx, adminActor, order.ID, nil, "first")
	require.NoError(t, err)

	_, _, err = env.refundSvc.Request(ctx, adminActor, order.ID, nil, "second")
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestProcessedPartialRefundAllowsNewRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	partial := int64(1000)
	_, token, err := env.refundSvc.Request(ctx, adminActor, order.ID, &partial, "goodwill")
	require.NoError(t, err)
	processed, err := env.refundSvc.Confirm(ctx, adminActor, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, processed.Status)

	// processed is terminal, so the order accepts another refund request
	next, _, err := env.refundSvc.Request(ctx, adminActor, order.ID, &partial, "second goodwill")
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusRequested, next.Status)
}

func TestRefundConfirmBoundToRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	otherAdmin := domain.Actor{ID: "plat-root2", Tag: "root2#0", Capabilities: []domain.Capability{domain.CapabilityAdmin}}
	_, token, err := env.refundSvc.Request(ctx, adminActor, order.ID, nil, "")
	require.NoError(t, err)

	_, err = env.refundSvc.Confirm(ctx, otherAdmin, token)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	assert.Empty(t, env.provider.refunds)
}

func TestRefundCancelUnblocksOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := paidOrder(t, env)

	_, token, err := env.refundSvc.Request(ctx, adminActor, order.ID, nil, "")
	require.NoError(t, err)
	require.NoError(t, env.refundSvc.Cancel(ctx, adminActor, token))

	// cancelled request no longer blocks a fresh one
	_, _, err = env.refundSvc.Request(ctx, adminActor, order.ID, nil, "retry")
	assert.NoError(t, err)
}
