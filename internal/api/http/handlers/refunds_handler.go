package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// RefundsHandler exposes the two-step refund workflow.
type RefundsHandler struct {
	service *service.RefundService
}

// NewRefundsHandler constructs handler.
func NewRefundsHandler(refundService *service.RefundService) *RefundsHandler {
	return &RefundsHandler{service: refundService}
}

// Request POST /v1/refunds.
func (h *RefundsHandler) Request(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.RequestRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.OrderID == "" {
		return apperrors.NewInvalidInput("order_id required", nil)
	}

	refund, token, err := h.service.Request(c.UserContext(), actor, req.OrderID, req.AmountCents, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.RefundRequestedResponse{
		Refund: refundResponse(refund),
		Token:  token,
	}})
}

// Confirm POST /v1/refunds/confirm.
func (h *RefundsHandler) Confirm(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	token, err := confirmToken(c)
	if err != nil {
		return err
	}

	refund, err := h.service.Confirm(c.UserContext(), actor, token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": refundResponse(refund)})
}

// Cancel POST /v1/refunds/cancel.
func (h *RefundsHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	token, err := confirmToken(c)
	if err != nil {
		return err
	}

	if err := h.service.Cancel(c.UserContext(), actor, token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": true}})
}
