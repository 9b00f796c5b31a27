package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_PublishRunsHandlersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_PublishReturnsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	sendErr := errors.New("smtp down")
	ran := false
	d.Subscribe(EventTicketMessageAdded, func(context.Context, Event) error {
		return sendErr
	})
	d.Subscribe(EventTicketMessageAdded, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketMessageAdded})
	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
	assert.True(t, ran, "later handlers still run")
}

func TestEventType_NotificationKindMatchesSettings(t *testing.T) {
	assert.Equal(t, "ticket_created", string(EventTicketCreated.NotificationKind()))
	assert.Equal(t, "status_changed", string(EventTicketStatusChanged.NotificationKind()))
	assert.Equal(t, "new_message", string(EventTicketMessageAdded.NotificationKind()))
	assert.Equal(t, "ticket_assigned", string(EventTicketAssigned.NotificationKind()))
	assert.Equal(t, "ticket_resolved", string(EventTicketResolved.NotificationKind()))
}
