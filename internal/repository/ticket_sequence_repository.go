package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// TicketSequenceRepository hands out per-year ticket sequence numbers.
// Next must never return the same value twice for a year.
type TicketSequenceRepository interface {
	Next(ctx context.Context, year int) (int, error)
}

type ticketSequenceRepository struct {
	pool *pgxpool.Pool
}

// NewTicketSequenceRepository instantiates repository.
func NewTicketSequenceRepository(pool *pgxpool.Pool) TicketSequenceRepository {
	return &ticketSequenceRepository{pool: pool}
}

// Next relies on the row lock taken by the upsert to serialize callers.
func (r *ticketSequenceRepository) Next(ctx context.Context, year int) (int, error) {
	const query = `
        INSERT INTO ticket_sequences (year, last_value) VALUES ($1, $2)
        ON CONFLICT (year) DO UPDATE SET last_value = ticket_sequences.last_value + 1
        RETURNING last_value`
	var next int
	if err := r.pool.QueryRow(ctx, query, year, domain.FirstTicketSequence).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}
