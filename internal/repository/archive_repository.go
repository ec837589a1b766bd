package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/commerce-desk/internal/domain"
)

// ArchiveRepository persists transcript snapshots for closed tickets.
type ArchiveRepository interface {
	Create(ctx context.Context, archive *domain.Archive) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Archive, error)
}

type archiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository instantiates repository.
func NewArchiveRepository(pool *pgxpool.Pool) ArchiveRepository {
	return &archiveRepository{pool: pool}
}

func (r *archiveRepository) Create(ctx context.Context, archive *domain.Archive) error {
	payload, err := json.Marshal(archive.Transcript)
	if err != nil {
		return err
	}
	archive.SizeBytes = int64(len(payload))
	const query = `
        INSERT INTO archives (ticket_id, transcript, size_bytes, closed_by, close_reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		archive.TicketID,
		payload,
		archive.SizeBytes,
		archive.ClosedByID,
		archive.CloseReason,
	).Scan(&archive.ID, &archive.CreatedAt)
}

func (r *archiveRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Archive, error) {
	const query = `
        SELECT id, ticket_id, transcript, size_bytes, closed_by, close_reason, created_at
        FROM archives WHERE ticket_id=$1
        ORDER BY created_at DESC LIMIT 1`
	var (
		archive domain.Archive
		payload []byte
	)
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&archive.ID,
		&archive.TicketID,
		&payload,
		&archive.SizeBytes,
		&archive.ClosedByID,
		&archive.CloseReason,
		&archive.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &archive.Transcript); err != nil {
		return nil, err
	}
	return &archive, nil
}
