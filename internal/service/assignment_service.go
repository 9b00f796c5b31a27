package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	settings   *SettingsService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	StaffRepo  repository.StaffRepository
	Settings   *SettingsService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		staff:      deps.StaffRepo,
		settings:   deps.Settings,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Assign hands the ticket to technicianID, or returns it to the queue when
// technicianID is nil. Status follows: ASG when assigned, NEW when cleared.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.StaffMember, number string, technicianID *string) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, number)
	if err != nil {
		return nil, err
	}
	req := policy.Request{Actor: actor, Settings: settings, Owns: ticket.IsAssignedTo(actor.ID)}
	if err := authorize(policy.TicketView, req); err != nil {
		return nil, err
	}

	var technician *domain.StaffMember
	if technicianID != nil && *technicianID != "" {
		technician, err = s.activeStaff(ctx, *technicianID)
		if err != nil {
			return nil, err
		}
	}
	oldTechnician, err := s.currentTechnician(ctx, ticket)
	if err != nil {
		return nil, err
	}

	var assigneeID *string
	status := domain.TicketStatusNew
	if technician != nil {
		id := technician.ID
		assigneeID = &id
		status = domain.TicketStatusAssigned
	}
	ticket, err = s.tickets.SetAssignment(ctx, ticket.ID, assigneeID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("ticket assignment changed",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.Stringp("technician_id", ticket.AssignedToID),
		zap.String("staff_id", actor.ID))

	return ticket, s.publishAssigned(ctx, actor, ticket, oldTechnician, technician)
}

// SelfAssign assigns an unassigned ticket to the caller when self-assignment
// is enabled.
func (s *AssignmentService) SelfAssign(ctx context.Context, actor *domain.StaffMember, number string) (*domain.Ticket, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.tickets, number)
	if err != nil {
		return nil, err
	}

	decision := policy.Evaluate(policy.TicketSelfAssign, policy.Request{
		Actor:          actor,
		Settings:       settings,
		TicketAssigned: ticket.IsAssigned(),
	})
	if !decision.Allowed {
		if decision.Reason == policy.ReasonAlreadyAssigned {
			return nil, apperrors.NewAlreadyAssigned(map[string]any{"ticket_number": ticket.TicketNumber})
		}
		return nil, apperrors.NewForbidden(decision.Reason)
	}

	claimed, err := s.tickets.ClaimUnassigned(ctx, ticket.ID, actor.ID, domain.TicketStatusAssigned)
	if errors.Is(err, repository.ErrAlreadyClaimed) {
		return nil, apperrors.NewAlreadyAssigned(map[string]any{"ticket_number": ticket.TicketNumber})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket = claimed
	s.logger.Info("ticket self-assigned", zap.String("ticket_number", ticket.TicketNumber), zap.String("staff_id", actor.ID))

	return ticket, s.publishAssigned(ctx, actor, ticket, nil, actor)
}

func (s *AssignmentService) activeStaff(ctx context.Context, id string) (*domain.StaffMember, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.Active {
		return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": id})
	}
	return staff, nil
}

// currentTechnician resolves the assignee for the event payload. A dangling
// assignment is reported as unassigned.
func (s *AssignmentService) currentTechnician(ctx context.Context, ticket *domain.Ticket) (*domain.StaffMember, error) {
	if !ticket.IsAssigned() {
		return nil, nil
	}
	staff, err := s.staff.GetByID(ctx, *ticket.AssignedToID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, actor *domain.StaffMember, ticket *domain.Ticket, oldTech, newTech *domain.StaffMember) error {
	return publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTicketAssigned,
		Ticket:  *ticket,
		Actor:   staffActor(actor),
		Payload: events.TicketAssignedPayload{OldTechnician: oldTech, NewTechnician: newTech},
	})
}
