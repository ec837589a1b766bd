package service

import (
	"context"

	"github.com/spec-kit/commerce-desk/internal/domain"
	"github.com/spec-kit/commerce-desk/internal/repository"
	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// AuditService exposes the append-only audit trail to administrators.
type AuditService struct {
	audits repository.AuditLogRepository
}

// NewAuditService constructs the service.
func NewAuditService(audits repository.AuditLogRepository) *AuditService {
	return &AuditService{audits: audits}
}

// List returns audit entries matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, actor domain.Actor, filter repository.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if !actor.Has(domain.CapabilityAdmin) {
		return nil, apperrors.NewForbidden("admin capability required")
	}
	if filter.Limit < 0 || filter.Limit > 200 {
		return nil, apperrors.NewInvalidInput("limit must be between 0 and 200", nil)
	}
	if filter.Offset < 0 {
		return nil, apperrors.NewInvalidInput("offset must not be negative", nil)
	}
	return s.audits.List(ctx, filter)
}
