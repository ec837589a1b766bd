package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// AuditLogFilter captures admin reporting parameters.
type AuditLogFilter struct {
	Action      *domain.AuditAction
	ActorID     *string
	TargetType  *string
	TargetID    *string
	CreatedFrom *time.Time
	Limit       int
	Offset      int
}

// AuditLogRepository is an append-only write-ahead history.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLogEntry, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository instantiates repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO audit_logs (action, actor_id, target_type, target_id, details)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Action,
		entry.ActorID,
		entry.TargetType,
		entry.TargetID,
		payload,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLogEntry, error) {
	base := `SELECT id, action, actor_id, target_type, target_id, details, created_at FROM audit_logs`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("action=$%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id=$%d", len(args)))
	}
	if filter.TargetType != nil {
		args = append(args, *filter.TargetType)
		clauses = append(clauses, fmt.Sprintf("target_type=$%d", len(args)))
	}
	if filter.TargetID != nil {
		args = append(args, *filter.TargetID)
		clauses = append(clauses, fmt.Sprintf("target_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var (
			entry   domain.AuditLogEntry
			payload []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActorID,
			&entry.TargetType,
			&entry.TargetID,
			&payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &entry.Details); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
