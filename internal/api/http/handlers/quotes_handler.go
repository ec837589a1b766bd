package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// QuotesHandler exposes quote create/accept/reject endpoints.
type QuotesHandler struct {
	service *service.QuoteService
}

// NewQuotesHandler constructs handler.
func NewQuotesHandler(quoteService *service.QuoteService) *QuotesHandler {
	return &QuotesHandler{service: quoteService}
}

// Create POST /v1/quotes.
func (h *QuotesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewInvalidInput("ticket_id required", nil)
	}

	quote, err := h.service.Create(c.UserContext(), actor, service.QuoteCreateInput{
		TicketID:     req.TicketID,
		AmountCents:  req.AmountCents,
		DepositCents: req.DepositCents,
		Currency:     req.Currency,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": quoteResponse(quote)})
}

// Accept POST /v1/quotes/:id/accept.
func (h *QuotesHandler) Accept(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	quote, paymentURL, err := h.service.Accept(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.QuoteAcceptedResponse{
		Quote:      quoteResponse(quote),
		PaymentURL: paymentURL,
	}})
}

// Reject POST /v1/quotes/:id/reject.
func (h *QuotesHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	quote, err := h.service.Reject(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": quoteResponse(quote)})
}

// List GET /v1/quotes.
func (h *QuotesHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticketID := c.Query("ticket_id")
	if ticketID == "" {
		return apperrors.NewInvalidInput("ticket_id query parameter required", nil)
	}

	quotes, err := h.service.List(c.UserContext(), ticketID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, quoteResponse(&quotes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
