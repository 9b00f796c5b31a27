package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
)

func TestSequenceStartsAt1001AndNeverRepeats(t *testing.T) {
	store := NewStore()
	seq := store.Sequences()
	ctx := context.Background()

	const workers = 50
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(ctx, 2025)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for n := range results {
		assert.False(t, seen[n], "duplicate sequence %d", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	assert.True(t, seen[1001])
	assert.True(t, seen[1001+workers-1])

	next, err := seq.Next(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1001, next)
}

func TestTicketListFiltersSortsAndScopes(t *testing.T) {
	store := NewStore()
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	tickets := store.Tickets()
	ctx := context.Background()
	tech := "tech-1"

	for i, title := range []string{"Printer jam", "VPN down", "New laptop"} {
		ticket := &domain.Ticket{
			TicketNumber: domain.FormatTicketNumber(2025, 1001+i),
			Title:        title,
			Type:         domain.TicketTypeIncident,
			Status:       domain.TicketStatusNew,
		}
		if i == 1 {
			ticket.AssignedToID = &tech
			ticket.Status = domain.TicketStatusAssigned
		}
		if i == 2 {
			ticket.Type = domain.TicketTypeRequest
		}
		require.NoError(t, tickets.Create(ctx, ticket))
	}

	all, total, err := tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "2025-1003", all[0].TicketNumber, "newest first by default")

	byTitle, _, err := tickets.List(ctx, repository.TicketFilter{Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, "New laptop", byTitle[0].Title)

	scoped, total, err := tickets.List(ctx, repository.TicketFilter{AssigneeID: &tech})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "VPN down", scoped[0].Title)

	request := domain.TicketTypeRequest
	_, total, err = tickets.List(ctx, repository.TicketFilter{Type: &request})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	found, _, err := tickets.List(ctx, repository.TicketFilter{Search: "printer"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2025-1001", found[0].TicketNumber)

	counts, err := tickets.CountByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.TicketStatusNew])
	assert.Equal(t, 1, counts[domain.TicketStatusAssigned])
	assert.Equal(t, 0, counts[domain.TicketStatusClosed])
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	ticket := &domain.Ticket{TicketNumber: "2025-1001", Status: domain.TicketStatusNew}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	loaded, err := store.Tickets().GetByNumber(ctx, "2025-1001")
	require.NoError(t, err)
	loaded.Status = domain.TicketStatusClosed

	again, err := store.Tickets().GetByNumber(ctx, "2025-1001")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, again.Status)
}

func TestAssetLinksGuardDeletion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	assets := store.Assets()

	ticket := &domain.Ticket{TicketNumber: "2025-1001", Status: domain.TicketStatusNew}
	require.NoError(t, store.Tickets().Create(ctx, ticket))
	asset := &domain.Asset{InventoryNumber: "INV-1", Name: "Asset INV-1", Type: domain.AssetTypeComputer}
	require.NoError(t, assets.Create(ctx, asset))

	created, err := assets.LinkTicket(ctx, ticket.ID, asset.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = assets.LinkTicket(ctx, ticket.ID, asset.ID)
	require.NoError(t, err)
	assert.False(t, created, "second link is a no-op")

	assert.ErrorIs(t, assets.Delete(ctx, asset.ID), repository.ErrReferenced)

	require.NoError(t, assets.UnlinkTicket(ctx, ticket.ID, asset.ID))
	require.NoError(t, assets.Delete(ctx, asset.ID))
	_, err = assets.GetByID(ctx, asset.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssetInventoryNumberIsUnique(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Assets().Create(ctx, &domain.Asset{InventoryNumber: "INV-1"}))
	err := store.Assets().Create(ctx, &domain.Asset{InventoryNumber: "INV-1"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSettingsCreateIfAbsentKeepsExistingRecord(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	settings := store.Settings()

	_, err := settings.Get(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first, err := settings.CreateIfAbsent(ctx, domain.DefaultSettings())
	require.NoError(t, err)
	first.TicketVisibility = true
	require.NoError(t, settings.Update(ctx, first))

	second, err := settings.CreateIfAbsent(ctx, domain.DefaultSettings())
	require.NoError(t, err)
	assert.True(t, second.TicketVisibility)
}

func TestTicketSettersTouchOnlyTheirField(t *testing.T) {
	store := NewStore()
	tickets := store.Tickets()
	ctx := context.Background()
	ticket := &domain.Ticket{TicketNumber: "2025-1001", Status: domain.TicketStatusNew, AccessCode: "AAAAAA"}
	require.NoError(t, tickets.Create(ctx, ticket))

	_, err := tickets.SetAccessCode(ctx, ticket.ID, "BBBBBB")
	require.NoError(t, err)
	_, err = tickets.SetHasNewResponses(ctx, ticket.ID, true)
	require.NoError(t, err)
	updated, err := tickets.SetStatus(ctx, ticket.ID, domain.TicketStatusWaiting)
	require.NoError(t, err)

	assert.Equal(t, "BBBBBB", updated.AccessCode)
	assert.True(t, updated.HasNewResponses)
	assert.Equal(t, domain.TicketStatusWaiting, updated.Status)

	_, err = tickets.SetStatus(ctx, "missing", domain.TicketStatusClosed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClaimUnassignedIsConditional(t *testing.T) {
	store := NewStore()
	tickets := store.Tickets()
	ctx := context.Background()
	ticket := &domain.Ticket{TicketNumber: "2025-1001", Status: domain.TicketStatusNew}
	require.NoError(t, tickets.Create(ctx, ticket))

	claimed, err := tickets.ClaimUnassigned(ctx, ticket.ID, "tech-1", domain.TicketStatusAssigned)
	require.NoError(t, err)
	assert.True(t, claimed.IsAssignedTo("tech-1"))
	assert.Equal(t, domain.TicketStatusAssigned, claimed.Status)

	_, err = tickets.ClaimUnassigned(ctx, ticket.ID, "tech-2", domain.TicketStatusAssigned)
	assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)

	_, err = tickets.ClaimUnassigned(ctx, "missing", "tech-2", domain.TicketStatusAssigned)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cleared, err := tickets.SetAssignment(ctx, ticket.ID, nil, domain.TicketStatusNew)
	require.NoError(t, err)
	assert.False(t, cleared.IsAssigned())
}
