package domain

import "time"

// TicketMessage captures one entry of a ticket conversation.
// Staff messages carry SenderID; requestor messages only SenderEmail.
type TicketMessage struct {
	ID              string
	TicketID        string
	SenderID        *string
	SenderEmail     string
	Content         string
	IsFromRequestor bool
	CreatedAt       time.Time
}
