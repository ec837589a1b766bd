package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// OrdersHandler exposes catalog checkout and order lookup endpoints.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// Checkout POST /v1/checkout.
func (h *OrdersHandler) Checkout(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.SKU == "" {
		return apperrors.NewInvalidInput("sku required", nil)
	}

	order, paymentURL, err := h.service.CheckoutProduct(c.UserContext(), actor, req.SKU)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CheckoutResponse{
		Order:      orderResponse(order),
		PaymentURL: paymentURL,
	}})
}

// Get GET /v1/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	order, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}
