package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/ratelimit"
	"github.com/campus-it/helpdesk/internal/repository"
	"github.com/campus-it/helpdesk/internal/storage"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
	"github.com/campus-it/helpdesk/pkg/util/validate"
)

// AccessService authenticates requestors by ticket number, email and access
// code, and lets them follow up on their ticket.
type AccessService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	files       storage.AttachmentStore
	limiter     ratelimit.FailureLimiter
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AccessDependencies bundles collaborators for the access service.
type AccessDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	Files          storage.AttachmentStore
	Limiter        ratelimit.FailureLimiter
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// Credentials identify one ticket to an anonymous requestor.
type Credentials struct {
	Email        string `json:"email" validate:"required"`
	TicketNumber string `json:"ticket_number" validate:"required"`
	AccessCode   string `json:"access_code" validate:"required"`
}

// RequestorView is what an authenticated requestor may see. It never
// includes the access code or other tickets.
type RequestorView struct {
	Ticket      domain.Ticket
	Messages    []domain.TicketMessage
	Attachments []domain.TicketAttachment
}

// NewAccessService constructs the service.
func NewAccessService(deps AccessDependencies) *AccessService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		files:       deps.Files,
		limiter:     deps.Limiter,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// Authenticate returns the requestor view when all three credentials match.
// Every mismatch yields the same UNAUTHORIZED error. clientKey identifies the
// caller for failure counting.
func (s *AccessService) Authenticate(ctx context.Context, clientKey string, creds Credentials) (*RequestorView, error) {
	ticket, err := s.authenticate(ctx, clientKey, creds)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ticket)
}

// PostRequestorMessage appends a requestor reply and flags the ticket for
// staff attention. The access code is not rotated.
func (s *AccessService) PostRequestorMessage(ctx context.Context, clientKey string, creds Credentials, content string) (*domain.TicketMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"content": "content is required"})
	}
	ticket, err := s.authenticate(ctx, clientKey, creds)
	if err != nil {
		return nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:        ticket.ID,
		SenderEmail:     ticket.RequestorEmail,
		Content:         content,
		IsFromRequestor: true,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket, err = s.tickets.SetHasNewResponses(ctx, ticket.ID, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	err = publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketMessageAdded,
		Ticket:  *ticket,
		Actor:   requestorActor(ticket.RequestorEmail),
		Payload: events.TicketMessageAddedPayload{Message: *msg},
	})
	return msg, err
}

// OpenAttachment streams one attachment of the requestor's ticket. A wrong
// attachment id is NOT_FOUND only after the credentials have matched.
func (s *AccessService) OpenAttachment(ctx context.Context, clientKey string, creds Credentials, attachmentID string) (*domain.TicketAttachment, io.ReadCloser, error) {
	ticket, err := s.authenticate(ctx, clientKey, creds)
	if err != nil {
		return nil, nil, err
	}
	return openAttachment(ctx, s.attachments, s.files, ticket, attachmentID)
}

func (s *AccessService) authenticate(ctx context.Context, clientKey string, creds Credentials) (*domain.Ticket, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	creds.TicketNumber = strings.TrimSpace(creds.TicketNumber)
	creds.AccessCode = strings.TrimSpace(creds.AccessCode)
	if err := validate.Struct(&creds); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, clientKey)
		if err != nil {
			// limiter outage must not lock requestors out
			s.logger.Warn("access limiter unavailable", zap.Error(err))
		} else if blocked {
			return nil, apperrors.NewTooManyRequests("too many failed attempts, try again later")
		}
	}

	ticket, err := s.tickets.GetByNumber(ctx, creds.TicketNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}
	if ticket == nil || err != nil ||
		ticket.RequestorEmail != creds.Email ||
		!auth.AccessCodeMatches(ticket.AccessCode, creds.AccessCode) {
		s.recordFailure(ctx, clientKey, creds.TicketNumber)
		return nil, apperrors.NewAuthenticationFailure()
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, clientKey); err != nil {
			s.logger.Warn("access limiter reset failed", zap.Error(err))
		}
	}
	return ticket, nil
}

func (s *AccessService) recordFailure(ctx context.Context, clientKey, number string) {
	s.metrics.AccessFailure()
	s.logger.Info("ticket access denied", zap.String("ticket_number", number), zap.String("client", clientKey))
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, clientKey); err != nil {
		s.logger.Warn("access limiter record failed", zap.Error(err))
	}
}

func (s *AccessService) view(ctx context.Context, ticket *domain.Ticket) (*RequestorView, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	files, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &RequestorView{Ticket: *ticket, Messages: msgs, Attachments: files}, nil
}
