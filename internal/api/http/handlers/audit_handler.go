package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/repository"
	"github.com/spec-kit/commerce-desk/internal/service"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{service: auditService}
}

// List GET /v1/audit.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	filter := repository.AuditLogFilter{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if action := c.Query("action"); action != "" {
		parsed := domain.AuditAction(action)
		filter.Action = &parsed
	}
	if actorID := c.Query("actor_id"); actorID != "" {
		filter.ActorID = &actorID
	}
	if targetType := c.Query("target_type"); targetType != "" {
		filter.TargetType = &targetType
	}
	if targetID := c.Query("target_id"); targetID != "" {
		filter.TargetID = &targetID
	}
	if from := c.Query("created_from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return apperrors.NewInvalidInput("created_from must be RFC3339", nil)
		}
		filter.CreatedFrom = &parsed
	}

	entries, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, auditEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
