package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/mail"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// Notification outcomes recorded in metrics.
const (
	notificationSent     = "sent"
	notificationSkipped  = "skipped"
	notificationDisabled = "disabled"
	notificationFailed   = "failed"
)

const unassignedLabel = "Unassigned"

// NotificationService turns ticket events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	settings   *SettingsService
	staff      repository.StaffRepository
	renderer   *mail.Renderer
	sender     mail.Sender
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Settings   *SettingsService
	StaffRepo  repository.StaffRepository
	Renderer   *mail.Renderer
	Sender     mail.Sender
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		settings:   deps.Settings,
		staff:      deps.StaffRepo,
		renderer:   deps.Renderer,
		sender:     deps.Sender,
		metrics:    deps.Metrics,
		logger:     logger,
		cfg:        deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	return n.notify(ctx, event.Type.NotificationKind(), []string{event.Ticket.RequestorEmail}, mail.Data{
		Ticket:     event.Ticket,
		AccessCode: event.Ticket.AccessCode,
	})
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return apperrors.NewInternalError(errors.New("status_changed event without payload"))
	}
	return n.notify(ctx, event.Type.NotificationKind(), []string{event.Ticket.RequestorEmail}, mail.Data{
		Ticket:    event.Ticket,
		OldStatus: payload.OldStatus.Label(),
		NewStatus: payload.NewStatus.Label(),
	})
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	return n.notify(ctx, event.Type.NotificationKind(), []string{event.Ticket.RequestorEmail}, mail.Data{
		Ticket: event.Ticket,
	})
}

// handleTicketAssigned mails the requestor and the newly assigned technician.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return apperrors.NewInternalError(errors.New("ticket_assigned event without payload"))
	}
	recipients := []string{event.Ticket.RequestorEmail}
	if payload.NewTechnician != nil {
		recipients = append(recipients, payload.NewTechnician.Email)
	}
	return n.notify(ctx, event.Type.NotificationKind(), recipients, mail.Data{
		Ticket:        event.Ticket,
		OldTechnician: technicianName(payload.OldTechnician),
		NewTechnician: technicianName(payload.NewTechnician),
	})
}

// handleTicketMessageAdded mails the other party of the conversation. A
// requestor message goes to the assigned technician when there is one; a
// staff message goes to the requestor along with the rotated access code.
func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return apperrors.NewInternalError(errors.New("new_message event without payload"))
	}
	data := mail.Data{Ticket: event.Ticket, MessageText: payload.Message.Content}
	recipient := event.Ticket.RequestorEmail

	if payload.Message.IsFromRequestor {
		if event.Ticket.IsAssigned() && n.staff != nil {
			tech, err := n.staff.GetByID(ctx, *event.Ticket.AssignedToID)
			switch {
			case err == nil:
				recipient = tech.Email
			case errors.Is(err, repository.ErrNotFound):
				n.logger.Warn("assigned technician missing", zap.String("ticket_number", event.Ticket.TicketNumber))
			default:
				return apperrors.MapError(err)
			}
		}
	} else {
		data.AccessCode = event.Ticket.AccessCode
	}
	return n.notify(ctx, event.Type.NotificationKind(), []string{recipient}, data)
}

func (n *NotificationService) notify(ctx context.Context, kind domain.NotificationKind, recipients []string, data mail.Data) error {
	logger := n.logger.With(zap.String("notification", string(kind)), zap.String("ticket_number", data.Ticket.TicketNumber))

	settings, err := n.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.WantsNotification(kind) {
		n.metrics.Notification(string(kind), notificationDisabled)
		logger.Debug("notification disabled")
		return nil
	}
	if !settings.Mail.Configured() {
		n.metrics.Notification(string(kind), notificationSkipped)
		logger.Info("mail delivery not configured, notification skipped")
		return nil
	}

	msg, err := n.renderer.Render(kind, data)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	msg.To = uniqueRecipients(recipients)
	if len(msg.To) == 0 {
		n.metrics.Notification(string(kind), notificationSkipped)
		return nil
	}

	sendCtx := ctx
	if timeout := n.cfg.SendTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := n.sender.Send(sendCtx, settings.Mail, msg); err != nil {
		n.metrics.Notification(string(kind), notificationFailed)
		logger.Error("notification delivery failed", zap.Strings("to", msg.To), zap.Error(err))
		return apperrors.NewDeliveryFailure(err)
	}
	n.metrics.Notification(string(kind), notificationSent)
	logger.Info("notification sent", zap.Strings("to", msg.To))
	return nil
}

func technicianName(staff *domain.StaffMember) string {
	if staff == nil {
		return unassignedLabel
	}
	return staff.FullName()
}

func uniqueRecipients(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
