package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClients struct {
	sessions stripeSessionAPI
	refunds  stripeRefundAPI
}

// StripeConfig configures the Stripe-backed Provider. Clients may be
// injected for tests; otherwise a client is built from the API key.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Logger        *zap.Logger
	Clock         func() time.Time
	Clients       *stripeClients
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           stripeClients
	webhookSecret string
	successURL    string
	cancelURL     string
	clock         func() time.Time
	logger        *zap.Logger
}

// NewStripeProvider constructs a Stripe-backed Provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, nil)
		clients = stripeClients{
			sessions: sc.CheckoutSessions,
			refunds:  sc.Refunds,
		}
	}
	if clients.sessions == nil || clients.refunds == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StripeProvider{
		api:           clients,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateCheckoutSession creates a hosted Stripe Checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if len(req.Items) == 0 {
		return CheckoutSession{}, errors.New("stripe: checkout requires at least one item")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		line := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
		if item.Description != "" {
			line.PriceData.ProductData.Description = stripe.String(item.Description)
		}
		if item.SKU != "" {
			line.PriceData.ProductData.Metadata = map[string]string{"sku": item.SKU}
		}
		lineItems = append(lineItems, line)
	}
	params.LineItems = lineItems

	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: make(map[string]string, len(req.Metadata)),
		}
		for k, v := range req.Metadata {
			params.Metadata[k] = v
			params.PaymentIntentData.Metadata[k] = v
		}
	}

	session, err := p.api.sessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	intentID := ""
	if session.PaymentIntent != nil {
		intentID = session.PaymentIntent.ID
	}
	expiresAt := p.clock().Add(30 * time.Minute)
	if session.ExpiresAt != 0 {
		expiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}

	p.logger.Info("stripe checkout session created",
		zap.String("session_id", session.ID),
		zap.String("payment_intent", intentID),
	)

	return CheckoutSession{
		ID:              session.ID,
		URL:             session.URL,
		PaymentIntentID: intentID,
		ExpiresAt:       expiresAt,
	}, nil
}

// CreateRefund returns funds on a settled payment intent.
func (p *StripeProvider) CreateRefund(ctx context.Context, req RefundRequest) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if req.AmountCents != nil {
		params.Amount = stripe.Int64(*req.AmountCents)
	}
	if reason := mapRefundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}

	if _, err := p.api.refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund payment intent: %w", err)
	}
	p.logger.Info("stripe refund created", zap.String("payment_intent", req.PaymentIntentID))
	return nil
}

// VerifyWebhook checks the signature on a raw webhook payload and maps the
// Stripe event to the provider-neutral form.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("stripe: verify webhook signature: %w", err)
	}
	return mapStripeEvent(event)
}

func mapStripeEvent(event stripe.Event) (Event, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		intentID := ""
		if session.PaymentIntent != nil {
			intentID = session.PaymentIntent.ID
		}
		return Event{
			Type:            EventCheckoutCompleted,
			SessionID:       session.ID,
			PaymentIntentID: intentID,
			AmountTotal:     session.AmountTotal,
			Currency:        strings.ToUpper(string(session.Currency)),
			Metadata:        session.Metadata,
		}, nil

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return Event{}, fmt.Errorf("stripe: decode payment intent: %w", err)
		}
		message := ""
		if intent.LastPaymentError != nil {
			message = intent.LastPaymentError.Msg
		}
		return Event{
			Type:            EventPaymentFailed,
			PaymentIntentID: intent.ID,
			AmountTotal:     intent.Amount,
			Currency:        strings.ToUpper(string(intent.Currency)),
			FailureMessage:  message,
			Metadata:        intent.Metadata,
		}, nil

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return Event{}, fmt.Errorf("stripe: decode charge: %w", err)
		}
		intentID := ""
		if charge.PaymentIntent != nil {
			intentID = charge.PaymentIntent.ID
		}
		return Event{
			Type:            EventChargeRefunded,
			PaymentIntentID: intentID,
			AmountTotal:     charge.Amount,
			AmountRefunded:  charge.AmountRefunded,
			Currency:        strings.ToUpper(string(charge.Currency)),
			Metadata:        charge.Metadata,
		}, nil
	}

	return Event{Type: EventIgnored}, nil
}

func mapRefundReason(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case string(stripe.RefundReasonDuplicate):
		return string(stripe.RefundReasonDuplicate)
	case string(stripe.RefundReasonFraudulent):
		return string(stripe.RefundReasonFraudulent)
	case string(stripe.RefundReasonRequestedByCustomer):
		return string(stripe.RefundReasonRequestedByCustomer)
	default:
		return ""
	}
}
