package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/repository"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if strings.TrimSpace(req.Category) == "" {
		return apperrors.NewInvalidInput("category required", nil)
	}

	ticket, questions, err := h.service.Create(c.UserContext(), actor, req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketCreatedResponse{
		Ticket:    ticketResponse(ticket),
		Questions: questions,
	}})
}

// RecordResponses POST /v1/tickets/:id/responses.
func (h *TicketsHandler) RecordResponses(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.RecordResponsesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	responses := make([]domain.IntakeResponse, 0, len(req.Responses))
	for _, r := range req.Responses {
		responses = append(responses, domain.IntakeResponse{Question: r.Question, Answer: r.Answer})
	}

	ticket, err := h.service.RecordResponses(c.UserContext(), actor, c.Params("id"), responses)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Claim POST /v1/tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.service.Claim(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Reassign POST /v1/tickets/:id/reassign.
func (h *TicketsHandler) Reassign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.ReassignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewInvalidInput("assignee_id required", nil)
	}

	ticket, err := h.service.Reassign(c.UserContext(), actor, c.Params("id"), req.AssigneeID, req.AssigneeTag)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// StartProgress POST /v1/tickets/:id/progress.
func (h *TicketsHandler) StartProgress(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.service.StartProgress(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// RequestClose POST /v1/tickets/:id/close.
func (h *TicketsHandler) RequestClose(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}

	token, err := h.service.RequestClose(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": dto.CloseRequestedResponse{Token: token}})
}

// ConfirmClose POST /v1/tickets/close/confirm.
func (h *TicketsHandler) ConfirmClose(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	token, err := confirmToken(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.ConfirmClose(c.UserContext(), actor, token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CancelClose POST /v1/tickets/close/cancel.
func (h *TicketsHandler) CancelClose(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	token, err := confirmToken(c)
	if err != nil {
		return err
	}

	if err := h.service.CancelClose(c.UserContext(), actor, token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"cancelled": true}})
}

// Preserve POST /v1/tickets/:id/preserve.
func (h *TicketsHandler) Preserve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.service.PreserveChannel(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Get GET /v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}

	tickets, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if from := c.Query("created_from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, apperrors.NewInvalidInput("created_from must be RFC3339", nil)
		}
		filter.CreatedFrom = &parsed
	}
	if to := c.Query("created_to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, apperrors.NewInvalidInput("created_to must be RFC3339", nil)
		}
		filter.CreatedTo = &parsed
	}
	return filter, nil
}

func confirmToken(c *fiber.Ctx) (string, error) {
	var req dto.ConfirmTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return "", apperrors.NewInvalidInput("invalid payload", nil)
	}
	if strings.TrimSpace(req.Token) == "" {
		return "", apperrors.NewInvalidInput("token required", nil)
	}
	return req.Token, nil
}
