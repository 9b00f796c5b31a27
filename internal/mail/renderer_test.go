package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/domain"
)

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		TicketNumber:   "2025-1001",
		RequestorName:  "Ada",
		RequestorEmail: "ada@etsu.edu",
		Title:          "Printer offline",
		Category:       "Printer",
		SubCategory:    "Printer Errors",
		Status:         domain.TicketStatusNew,
	}
}

func TestRenderTicketCreatedIncludesAccessCode(t *testing.T) {
	r, err := NewRenderer("https://help.example.edu")
	require.NoError(t, err)

	msg, err := r.Render(domain.NotifyTicketCreated, Data{Ticket: sampleTicket(), AccessCode: "aB3!x9"})
	require.NoError(t, err)

	assert.Equal(t, "Ticket Created - 2025-1001", msg.Subject)
	assert.Contains(t, msg.PlainBody, "aB3!x9")
	assert.Contains(t, msg.PlainBody, "https://help.example.edu/tickets/access")
	assert.Contains(t, msg.HTMLBody, "aB3!x9")
}

func TestRenderNewMessageSanitizesMarkdown(t *testing.T) {
	r, err := NewRenderer("https://help.example.edu")
	require.NoError(t, err)

	msg, err := r.Render(domain.NotifyNewMessage, Data{
		Ticket:      sampleTicket(),
		MessageText: "**Try again** <script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Message on Ticket 2025-1001", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<strong>Try again</strong>")
	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.NotContains(t, msg.PlainBody, "new access code")
}

func TestRenderStatusAndAssignment(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	status, err := r.Render(domain.NotifyStatusChanged, Data{Ticket: sampleTicket(), OldStatus: "New", NewStatus: "Resolved"})
	require.NoError(t, err)
	assert.Contains(t, status.PlainBody, "from New to Resolved")

	assigned, err := r.Render(domain.NotifyTicketAssigned, Data{Ticket: sampleTicket(), OldTechnician: "Unassigned", NewTechnician: "Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, "Ticket Assignment Updated - 2025-1001", assigned.Subject)
	assert.Contains(t, assigned.HTMLBody, "Grace Hopper")
}

func TestRenderUnknownKind(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)
	_, err = r.Render(domain.NotifySLABreach, Data{Ticket: sampleTicket()})
	assert.Error(t, err)
}
