package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata. Attachments are
// immutable once stored.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.TicketAttachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
	// GetForTicket returns ErrNotFound unless id belongs to ticketID.
	GetForTicket(ctx context.Context, ticketID, id string) (*domain.TicketAttachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, storage_key, file_name, size_bytes)
        VALUES ($1,$2,$3,$4)
        RETURNING id, uploaded_at`
	err := r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.UploadedAt)
	return translate(err)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, size_bytes, uploaded_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var attachment domain.TicketAttachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.SizeBytes,
			&attachment.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) GetForTicket(ctx context.Context, ticketID, id string) (*domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, size_bytes, uploaded_at
        FROM ticket_attachments WHERE id=$1 AND ticket_id=$2`
	var attachment domain.TicketAttachment
	err := r.pool.QueryRow(ctx, query, id, ticketID).Scan(
		&attachment.ID,
		&attachment.TicketID,
		&attachment.StorageKey,
		&attachment.FileName,
		&attachment.SizeBytes,
		&attachment.UploadedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &attachment, nil
}
