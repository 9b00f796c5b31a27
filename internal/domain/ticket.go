package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASG"
	TicketStatusInProgress TicketStatus = "PRG"
	TicketStatusWaiting    TicketStatus = "WTG"
	TicketStatusResolved   TicketStatus = "RES"
	TicketStatusClosed     TicketStatus = "CLS"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusWaiting,
	TicketStatusResolved,
	TicketStatusClosed,
}

var ticketStatusLabels = map[TicketStatus]string{
	TicketStatusNew:        "New",
	TicketStatusAssigned:   "Assigned",
	TicketStatusInProgress: "In Progress",
	TicketStatusWaiting:    "Waiting for Response",
	TicketStatusResolved:   "Resolved",
	TicketStatusClosed:     "Closed",
}

// Valid reports whether s is one of the six status codes.
func (s TicketStatus) Valid() bool {
	_, ok := ticketStatusLabels[s]
	return ok
}

// Label returns the display name, or the raw code when unknown.
func (s TicketStatus) Label() string {
	if label, ok := ticketStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// TicketType separates incidents from service requests.
type TicketType string

const (
	TicketTypeIncident TicketType = "INC"
	TicketTypeRequest  TicketType = "REQ"
)

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	return t == TicketTypeIncident || t == TicketTypeRequest
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID              string
	TicketNumber    string
	AccessCode      string
	RequestorName   string
	RequestorEmail  string
	RequestorPhone  string
	Title           string
	Description     string
	Type            TicketType
	SubType         TicketSubType
	Item            string
	Category        string
	SubCategory     string
	Status          TicketStatus
	AssignedToID    *string
	HasNewResponses bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAssigned reports whether a technician currently owns the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedToID != nil && *t.AssignedToID != ""
}

// IsAssignedTo reports whether staffID owns the ticket.
func (t *Ticket) IsAssignedTo(staffID string) bool {
	return t.IsAssigned() && *t.AssignedToID == staffID
}

// FormatTicketNumber renders the human-readable {year}-{sequence} identifier.
func FormatTicketNumber(year, sequence int) string {
	return fmt.Sprintf("%d-%d", year, sequence)
}

// FirstTicketSequence is the sequence issued to the first ticket of a year.
const FirstTicketSequence = 1001

// TicketAttachment is an uploaded file bound to a ticket.
type TicketAttachment struct {
	ID         string
	TicketID   string
	StorageKey string
	FileName   string
	SizeBytes  int64
	UploadedAt time.Time
}
