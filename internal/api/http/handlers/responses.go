package handlers

import (
	"github.com/spec-kit/commerce-desk/internal/api/dto"
	"github.com/spec-kit/commerce-desk/internal/domain"
)

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Category:  t.Category,
		ChannelID: t.ChannelID,
		Status:    t.Status,
		Responses: t.Responses,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		ClosedAt:  t.ClosedAt,
	}
}

func quoteResponse(q *domain.Quote) dto.QuoteResponse {
	return dto.QuoteResponse{
		ID:           q.ID,
		TicketID:     q.TicketID,
		AmountCents:  q.AmountCents,
		DepositCents: q.DepositCents,
		Currency:     q.Currency,
		Description:  q.Description,
		Status:       q.Status,
		CreatedAt:    q.CreatedAt,
		AcceptedAt:   q.AcceptedAt,
		ExpiresAt:    q.ExpiresAt,
	}
}

func orderResponse(o *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Kind:        o.Kind,
		SKU:         o.SKU,
		QuoteID:     o.QuoteID,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		Status:      o.Status,
		LicenseKey:  o.LicenseKey,
		CreatedAt:   o.CreatedAt,
		PaidAt:      o.PaidAt,
	}
}

func refundResponse(r *domain.Refund) dto.RefundResponse {
	return dto.RefundResponse{
		ID:          r.ID,
		OrderID:     r.OrderID,
		AmountCents: r.AmountCents,
		Currency:    r.Currency,
		Reason:      r.Reason,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID,
		PlatformID:      u.PlatformID,
		Tag:             u.Tag,
		VIPTier:         u.VIPTier,
		TotalSpentCents: u.TotalSpentCents,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func auditEntryResponse(e *domain.AuditLogEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:         e.ID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}
