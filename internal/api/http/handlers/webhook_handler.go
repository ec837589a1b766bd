package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// WebhookHandler receives signed payment provider events. The signature is
// checked against the raw request body before anything is touched.
type WebhookHandler struct {
	provider payments.Provider
	orders   *service.OrderService
	logger   *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(provider payments.Provider, orders *service.OrderService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{provider: provider, orders: orders, logger: logger}
}

// Receive POST /v1/payments/webhook.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return apperrors.NewUnauthorized("missing webhook signature")
	}

	event, err := h.provider.VerifyWebhook(c.Body(), signature)
	if err != nil {
		h.logger.Warn("webhook signature rejected", zap.Error(err))
		return apperrors.NewUnauthorized("invalid webhook signature")
	}

	if event.Type == payments.EventIgnored {
		return c.JSON(fiber.Map{"received": true})
	}
	if err := h.orders.HandleWebhookEvent(c.UserContext(), event); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}
