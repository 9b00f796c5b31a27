package events

import (
	"time"

	"github.com/campus-it/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers. Values match the
// notification preference names on Settings.
type EventType string

const (
	EventTicketCreated       EventType = EventType(domain.NotifyTicketCreated)
	EventTicketStatusChanged EventType = EventType(domain.NotifyStatusChanged)
	EventTicketMessageAdded  EventType = EventType(domain.NotifyNewMessage)
	EventTicketAssigned      EventType = EventType(domain.NotifyTicketAssigned)
	// EventTicketResolved has a preference and a handler but no trigger.
	EventTicketResolved EventType = EventType(domain.NotifyTicketResolved)
)

// NotificationKind returns the Settings preference governing the event.
func (t EventType) NotificationKind() domain.NotificationKind {
	return domain.NotificationKind(t)
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	StaffID *string            `json:"staff_id,omitempty"`
	Email   string             `json:"email,omitempty"`
}

// Event represents a domain event emitted by services. Ticket is a snapshot
// taken after the change was persisted.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Ticket    domain.Ticket `json:"ticket"`
	Actor     Actor         `json:"actor"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   interface{}   `json:"payload"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload carries the technician before and after the change.
// Nil means unassigned.
type TicketAssignedPayload struct {
	OldTechnician *domain.StaffMember `json:"old_technician,omitempty"`
	NewTechnician *domain.StaffMember `json:"new_technician,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	Message domain.TicketMessage `json:"message"`
}
