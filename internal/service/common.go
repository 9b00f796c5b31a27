package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	"github.com/campus-it/helpdesk/internal/storage"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// DefaultPageSize is the dashboard and asset list page size.
const DefaultPageSize = 20

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return dispatcher.Publish(ctx, event)
}

func staffActor(staff *domain.StaffMember) events.Actor {
	id := staff.ID
	return events.Actor{
		Type:    domain.SubjectTypeStaff,
		StaffID: &id,
		Email:   staff.Email,
	}
}

func requestorActor(email string) events.Actor {
	return events.Actor{
		Type:  domain.SubjectTypeRequestor,
		Email: email,
	}
}

func loadTicket(ctx context.Context, tickets repository.TicketRepository, number string) (*domain.Ticket, error) {
	ticket, err := tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func requireStaff(staff *domain.StaffMember) error {
	if staff == nil {
		return apperrors.NewUnauthorized(policy.ReasonAnonymous)
	}
	return nil
}

// authorize turns a denied decision into a FORBIDDEN error.
func authorize(capability policy.Capability, req policy.Request) error {
	decision := policy.Evaluate(capability, req)
	if decision.Allowed {
		return nil
	}
	if req.Actor == nil {
		return apperrors.NewUnauthorized(decision.Reason)
	}
	return apperrors.NewForbidden(decision.Reason)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// openAttachment resolves id among ticket's attachments and opens its bytes.
// The caller closes the returned reader.
func openAttachment(ctx context.Context, attachments repository.AttachmentRepository, files storage.AttachmentStore, ticket *domain.Ticket, id string) (*domain.TicketAttachment, io.ReadCloser, error) {
	notFound := apperrors.NewNotFound("attachment", map[string]any{"ticket_number": ticket.TicketNumber, "attachment_id": id})
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, notFound
	}
	record, err := attachments.GetForTicket(ctx, ticket.ID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, notFound
	}
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if files == nil {
		return nil, nil, apperrors.NewInternalError(errors.New("attachment storage is not configured"))
	}
	body, err := files.Open(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return record, body, nil
}
