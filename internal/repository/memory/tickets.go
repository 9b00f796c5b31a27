package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
)

type ticketStore struct{ s *Store }

func (r ticketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.ticketsByNumber[ticket.TicketNumber]; exists {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	ticket.ID = newID()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := copyTicket(*ticket)
	r.s.tickets[ticket.ID] = &stored
	r.s.ticketsByNumber[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r ticketStore) SetStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) error {
		t.Status = status
		return nil
	})
}

func (r ticketStore) SetAssignment(_ context.Context, id string, assigneeID *string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) error {
		t.AssignedToID = copyString(assigneeID)
		t.Status = status
		return nil
	})
}

func (r ticketStore) ClaimUnassigned(_ context.Context, id, assigneeID string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) error {
		if t.IsAssigned() {
			return repository.ErrAlreadyClaimed
		}
		t.AssignedToID = &assigneeID
		t.Status = status
		return nil
	})
}

func (r ticketStore) SetAccessCode(_ context.Context, id, code string) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) error {
		t.AccessCode = code
		return nil
	})
}

func (r ticketStore) SetHasNewResponses(_ context.Context, id string, value bool) (*domain.Ticket, error) {
	return r.mutate(id, func(t *domain.Ticket) error {
		t.HasNewResponses = value
		return nil
	})
}

// mutate applies fn to the stored ticket under the write lock and returns a
// copy of the result.
func (r ticketStore) mutate(id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(existing); err != nil {
		return nil, err
	}
	existing.UpdatedAt = r.s.now()
	updated := copyTicket(*existing)
	return &updated, nil
}

func (r ticketStore) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.ticketsByNumber[number]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := copyTicket(*r.s.tickets[id])
	return &ticket, nil
}

func (r ticketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []domain.Ticket
	for _, t := range r.s.tickets {
		if filter.AssigneeID != nil && !t.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if term != "" && !ticketMatches(t, term) {
			continue
		}
		matched = append(matched, copyTicket(*t))
	}

	sortKey := filter.Sort
	if _, ok := repository.TicketSortOptions[sortKey]; !ok {
		sortKey = repository.DefaultTicketSort
	}
	desc := strings.HasPrefix(sortKey, "-")
	field := strings.TrimPrefix(sortKey, "-")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var cmp int
		switch field {
		case "status":
			cmp = strings.Compare(string(a.Status), string(b.Status))
		case "type":
			cmp = strings.Compare(string(a.Type), string(b.Type))
		case "title":
			cmp = strings.Compare(a.Title, b.Title)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			cmp = -cmp
		}
		if cmp == 0 {
			return a.TicketNumber < b.TicketNumber
		}
		return cmp < 0
	})

	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r ticketStore) CountByStatus(_ context.Context, assigneeID *string) (map[domain.TicketStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		counts[status] = 0
	}
	for _, t := range r.s.tickets {
		if assigneeID != nil && !t.IsAssignedTo(*assigneeID) {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

func ticketMatches(t *domain.Ticket, term string) bool {
	for _, field := range []string{t.TicketNumber, t.Title, t.Description, t.RequestorEmail, t.RequestorName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

type sequenceStore struct{ s *Store }

func (r sequenceStore) Next(_ context.Context, year int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	last, ok := r.s.sequences[year]
	if !ok {
		r.s.sequences[year] = domain.FirstTicketSequence
		return domain.FirstTicketSequence, nil
	}
	r.s.sequences[year] = last + 1
	return last + 1, nil
}

type messageStore struct{ s *Store }

func (r messageStore) Create(_ context.Context, msg *domain.TicketMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tickets[msg.TicketID]; !ok {
		return repository.ErrReferenced
	}
	msg.ID = newID()
	msg.CreatedAt = r.s.now()
	stored := *msg
	stored.SenderID = copyString(msg.SenderID)
	r.s.messages[msg.TicketID] = append(r.s.messages[msg.TicketID], stored)
	return nil
}

func (r messageStore) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.TicketMessage(nil), r.s.messages[ticketID]...), nil
}

type attachmentStore struct{ s *Store }

func (r attachmentStore) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tickets[attachment.TicketID]; !ok {
		return repository.ErrReferenced
	}
	attachment.ID = newID()
	attachment.UploadedAt = r.s.now()
	r.s.attachments[attachment.TicketID] = append(r.s.attachments[attachment.TicketID], *attachment)
	return nil
}

func (r attachmentStore) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.TicketAttachment(nil), r.s.attachments[ticketID]...), nil
}

func (r attachmentStore) GetForTicket(_ context.Context, ticketID, id string) (*domain.TicketAttachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, attachment := range r.s.attachments[ticketID] {
		if attachment.ID == id {
			out := attachment
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func copyTicket(t domain.Ticket) domain.Ticket {
	t.AssignedToID = copyString(t.AssignedToID)
	return t
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
