package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// interleavingTickets runs afterLoad once, right after the next ticket lookup
// returns, so another request can land between a service's read and write.
type interleavingTickets struct {
	repository.TicketRepository

	mu        sync.Mutex
	afterLoad func()
}

func (r *interleavingTickets) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := r.TicketRepository.GetByNumber(ctx, number)
	r.mu.Lock()
	hook := r.afterLoad
	r.afterLoad = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ticket, err
}

func (e *testEnv) interleaving(hook func()) *interleavingTickets {
	return &interleavingTickets{TicketRepository: e.store.Tickets(), afterLoad: hook}
}

func (e *testEnv) accessWith(tickets repository.TicketRepository) *AccessService {
	return NewAccessService(AccessDependencies{
		TicketRepo:     tickets,
		MessageRepo:    e.store.Messages(),
		AttachmentRepo: e.store.Attachments(),
		Files:          e.files,
		Dispatcher:     e.dispatcher,
		Metrics:        e.metrics,
	})
}

func (e *testEnv) ticketsWith(tickets repository.TicketRepository) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		SequenceRepo:   e.store.Sequences(),
		MessageRepo:    e.store.Messages(),
		AttachmentRepo: e.store.Attachments(),
		Files:          e.files,
		Settings:       e.settings,
		Assets:         e.assets,
		Dispatcher:     e.dispatcher,
		Metrics:        e.metrics,
	})
}

func (e *testEnv) stored(t *testing.T, number string) *domain.Ticket {
	t.Helper()
	ticket, err := e.store.Tickets().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return ticket
}

func TestRequestorReplyDoesNotRestoreRotatedCode(t *testing.T) {
	env := newTestEnv(t)
	env.enableMail(t)
	ticket := env.submit(t, validSubmission())
	oldCreds := credentialsFor(ticket)

	access := env.accessWith(env.interleaving(func() {
		_, err := env.tickets.PostStaffMessage(context.Background(), env.manager, ticket.TicketNumber, "Please restart the printer.")
		require.NoError(t, err)
	}))
	_, err := access.PostRequestorMessage(context.Background(), "client", oldCreds, "It is still offline.")
	require.NoError(t, err)

	stored := env.stored(t, ticket.TicketNumber)
	assert.NotEqual(t, ticket.AccessCode, stored.AccessCode)
	assert.True(t, stored.HasNewResponses)

	mailedCode := false
	for _, msg := range env.sender.messages() {
		mailedCode = mailedCode || strings.Contains(msg.PlainBody, stored.AccessCode)
	}
	assert.True(t, mailedCode, "rotated code was never mailed")

	_, err = env.access.Authenticate(context.Background(), "other-client", oldCreds)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = env.access.Authenticate(context.Background(), "other-client", credentialsFor(stored))
	assert.NoError(t, err)
}

func TestStaffReplyKeepsConcurrentRequestorFlag(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, validSubmission())

	tickets := env.ticketsWith(env.interleaving(func() {
		_, err := env.access.PostRequestorMessage(context.Background(), "client", credentialsFor(ticket), "Any update?")
		require.NoError(t, err)
	}))
	_, err := tickets.PostStaffMessage(context.Background(), env.manager, ticket.TicketNumber, "Looking into it.")
	require.NoError(t, err)

	stored := env.stored(t, ticket.TicketNumber)
	assert.True(t, stored.HasNewResponses)
	assert.NotEqual(t, ticket.AccessCode, stored.AccessCode)
}

func TestStatusChangeKeepsConcurrentRequestorFlag(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.submit(t, validSubmission())

	tickets := env.ticketsWith(env.interleaving(func() {
		_, err := env.access.PostRequestorMessage(context.Background(), "client", credentialsFor(ticket), "Any update?")
		require.NoError(t, err)
	}))
	_, err := tickets.UpdateStatus(context.Background(), env.manager, ticket.TicketNumber, domain.TicketStatusInProgress)
	require.NoError(t, err)

	stored := env.stored(t, ticket.TicketNumber)
	assert.True(t, stored.HasNewResponses)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, ticket.AccessCode, stored.AccessCode)
}

func TestAssignKeepsConcurrentRotatedCode(t *testing.T) {
	env := newTestEnv(t)
	tech := env.technician(t, "Linus", "linus@etsu.edu")
	ticket := env.submit(t, validSubmission())

	assignments := NewAssignmentService(AssignmentDependencies{
		TicketRepo: env.interleaving(func() {
			_, err := env.tickets.PostStaffMessage(context.Background(), env.manager, ticket.TicketNumber, "Forwarding to desktop support.")
			require.NoError(t, err)
		}),
		StaffRepo:  env.store.Staff(),
		Settings:   env.settings,
		Dispatcher: env.dispatcher,
	})
	_, err := assignments.Assign(context.Background(), env.manager, ticket.TicketNumber, &tech.ID)
	require.NoError(t, err)

	stored := env.stored(t, ticket.TicketNumber)
	assert.True(t, stored.IsAssignedTo(tech.ID))
	assert.NotEqual(t, ticket.AccessCode, stored.AccessCode)
}

func TestSelfAssignLosesToConcurrentClaim(t *testing.T) {
	env := newTestEnv(t)
	env.updateSettings(t, func(s *domain.Settings) { s.TicketSelfAssignment = true })
	first := env.technician(t, "Linus", "linus@etsu.edu")
	second := env.technician(t, "Ken", "ken@etsu.edu")
	ticket := env.submit(t, validSubmission())

	assignments := NewAssignmentService(AssignmentDependencies{
		TicketRepo: env.interleaving(func() {
			_, err := env.assignments.SelfAssign(context.Background(), second, ticket.TicketNumber)
			require.NoError(t, err)
		}),
		StaffRepo:  env.store.Staff(),
		Settings:   env.settings,
		Dispatcher: env.dispatcher,
	})
	_, err := assignments.SelfAssign(context.Background(), first, ticket.TicketNumber)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyAssigned))

	stored := env.stored(t, ticket.TicketNumber)
	assert.True(t, stored.IsAssignedTo(second.ID))
}
