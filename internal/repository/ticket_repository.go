package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// DefaultTicketSort orders the dashboard newest first.
const DefaultTicketSort = "-time_created"

// TicketSortOptions maps accepted sort keys to SQL ordering.
var TicketSortOptions = map[string]string{
	"time_created":  "created_at ASC",
	"-time_created": "created_at DESC",
	"status":        "status ASC",
	"-status":       "status DESC",
	"type":          "ticket_type ASC",
	"-type":         "ticket_type DESC",
	"title":         "title ASC",
	"-title":        "title DESC",
}

// TicketFilter captures staff dashboard parameters.
type TicketFilter struct {
	// AssigneeID limits results to one technician's tickets when set.
	AssigneeID *string
	Search     string
	Status     *domain.TicketStatus
	Type       *domain.TicketType
	Sort       string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error

	// The setters below write only the named columns and return the row as
	// stored afterwards, so concurrent lifecycle actions never revert each
	// other's fields.
	SetStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
	SetAssignment(ctx context.Context, id string, assigneeID *string, status domain.TicketStatus) (*domain.Ticket, error)
	// ClaimUnassigned assigns the ticket only while nobody holds it and
	// returns ErrAlreadyClaimed otherwise.
	ClaimUnassigned(ctx context.Context, id, assigneeID string, status domain.TicketStatus) (*domain.Ticket, error)
	SetAccessCode(ctx context.Context, id, code string) (*domain.Ticket, error)
	SetHasNewResponses(ctx context.Context, id string, value bool) (*domain.Ticket, error)

	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	CountByStatus(ctx context.Context, assigneeID *string) (map[domain.TicketStatus]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, access_code, requestor_name, requestor_email, requestor_phone,
               title, description, ticket_type, sub_type, item, category, sub_category, status,
               assigned_to_id, has_new_responses, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, access_code, requestor_name, requestor_email, requestor_phone,
            title, description, ticket_type, sub_type, item, category, sub_category, status, assigned_to_id,
            has_new_responses)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.AccessCode,
		ticket.RequestorName,
		ticket.RequestorEmail,
		ticket.RequestorPhone,
		ticket.Title,
		ticket.Description,
		ticket.Type,
		ticket.SubType,
		ticket.Item,
		ticket.Category,
		ticket.SubCategory,
		ticket.Status,
		ticket.AssignedToID,
		ticket.HasNewResponses,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) SetStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.updateOne(ctx, `status=$2`, id, status)
}

func (r *ticketRepository) SetAssignment(ctx context.Context, id string, assigneeID *string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.updateOne(ctx, `assigned_to_id=$2, status=$3`, id, assigneeID, status)
}

func (r *ticketRepository) ClaimUnassigned(ctx context.Context, id, assigneeID string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := `UPDATE tickets SET assigned_to_id=$2, status=$3, updated_at=NOW()
        WHERE id=$1 AND assigned_to_id IS NULL
        RETURNING ` + ticketColumns
	rows, err := r.pool.Query(ctx, query, id, assigneeID, status)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(tickets) == 1 {
		return &tickets[0], nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, translate(err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrAlreadyClaimed
}

func (r *ticketRepository) SetAccessCode(ctx context.Context, id, code string) (*domain.Ticket, error) {
	return r.updateOne(ctx, `access_code=$2`, id, code)
}

func (r *ticketRepository) SetHasNewResponses(ctx context.Context, id string, value bool) (*domain.Ticket, error) {
	return r.updateOne(ctx, `has_new_responses=$2`, id, value)
}

// updateOne applies set (placeholders from $2) to the ticket with id $1.
func (r *ticketRepository) updateOne(ctx context.Context, set, id string, args ...any) (*domain.Ticket, error) {
	query := `UPDATE tickets SET ` + set + `, updated_at=NOW() WHERE id=$1 RETURNING ` + ticketColumns
	rows, err := r.pool.Query(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, translate(err)
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	rows, err := r.pool.Query(ctx, query, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("ticket_type=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(ticket_number) LIKE %[1]s OR LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s OR LOWER(requestor_email) LIKE %[1]s OR LOWER(requestor_name) LIKE %[1]s)", p))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := TicketSortOptions[filter.Sort]
	if !ok {
		order = TicketSortOptions[DefaultTicketSort]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s, ticket_number ASC LIMIT %d OFFSET %d`,
		ticketColumns, where, order, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context, assigneeID *string) (map[domain.TicketStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	args := []any{}
	if assigneeID != nil {
		args = append(args, *assigneeID)
		query += ` WHERE assigned_to_id=$1`
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var status domain.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TicketNumber,
			&ticket.AccessCode,
			&ticket.RequestorName,
			&ticket.RequestorEmail,
			&ticket.RequestorPhone,
			&ticket.Title,
			&ticket.Description,
			&ticket.Type,
			&ticket.SubType,
			&ticket.Item,
			&ticket.Category,
			&ticket.SubCategory,
			&ticket.Status,
			&ticket.AssignedToID,
			&ticket.HasNewResponses,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
