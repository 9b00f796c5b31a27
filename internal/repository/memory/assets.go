package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/repository"
)

type assetStore struct{ s *Store }

func (r assetStore) Create(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.inventoryTaken(asset.InventoryNumber, "") {
		return repository.ErrDuplicate
	}
	asset.ID = newID()
	asset.UpdatedAt = r.s.now()
	stored := copyAsset(*asset)
	r.s.assets[asset.ID] = &stored
	return nil
}

func (r assetStore) Update(_ context.Context, asset *domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assets[asset.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.inventoryTaken(asset.InventoryNumber, asset.ID) {
		return repository.ErrDuplicate
	}
	asset.UpdatedAt = r.s.now()
	stored := copyAsset(*asset)
	r.s.assets[asset.ID] = &stored
	return nil
}

func (r assetStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assets[id]; !ok {
		return repository.ErrNotFound
	}
	if r.linkCount(id) > 0 {
		return repository.ErrReferenced
	}
	delete(r.s.assets, id)
	return nil
}

func (r assetStore) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	asset, ok := r.s.assets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyAsset(*asset)
	return &c, nil
}

func (r assetStore) GetByInventoryNumber(_ context.Context, inventoryNumber string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, asset := range r.s.assets {
		if asset.InventoryNumber == inventoryNumber {
			c := copyAsset(*asset)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r assetStore) List(_ context.Context, filter repository.AssetFilter) ([]domain.Asset, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []domain.Asset
	for _, asset := range r.s.assets {
		if filter.AssigneeID != nil && !r.linkedToAssignee(asset.ID, *filter.AssigneeID) {
			continue
		}
		if filter.Type != nil && asset.Type != *filter.Type {
			continue
		}
		if filter.Active != nil && asset.IsActive != *filter.Active {
			continue
		}
		if term != "" && !assetMatches(asset, term) {
			continue
		}
		matched = append(matched, copyAsset(*asset))
	}

	sortKey := filter.Sort
	if _, ok := repository.AssetSortOptions[sortKey]; !ok {
		sortKey = repository.DefaultAssetSort
	}
	desc := strings.HasPrefix(sortKey, "-")
	field := strings.TrimPrefix(sortKey, "-")
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var cmp int
		switch field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "type":
			cmp = strings.Compare(string(a.Type), string(b.Type))
		case "location":
			cmp = strings.Compare(a.Location, b.Location)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.InventoryNumber, b.InventoryNumber)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r assetStore) LinkTicket(_ context.Context, ticketID, assetID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tickets[ticketID]; !ok {
		return false, repository.ErrReferenced
	}
	if _, ok := r.s.assets[assetID]; !ok {
		return false, repository.ErrReferenced
	}
	linked := r.s.links[ticketID]
	if linked == nil {
		linked = make(map[string]struct{})
		r.s.links[ticketID] = linked
	}
	if _, exists := linked[assetID]; exists {
		return false, nil
	}
	linked[assetID] = struct{}{}
	return true, nil
}

func (r assetStore) UnlinkTicket(_ context.Context, ticketID, assetID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.links[ticketID][assetID]; !exists {
		return repository.ErrNotFound
	}
	delete(r.s.links[ticketID], assetID)
	return nil
}

func (r assetStore) ListByTicket(_ context.Context, ticketID string) ([]domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.Asset
	for assetID := range r.s.links[ticketID] {
		if asset, ok := r.s.assets[assetID]; ok {
			result = append(result, copyAsset(*asset))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InventoryNumber < result[j].InventoryNumber })
	return result, nil
}

func (r assetStore) LinkCount(_ context.Context, assetID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.linkCount(assetID), nil
}

func (r assetStore) LinkedToAssignee(_ context.Context, assetID, staffID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.linkedToAssignee(assetID, staffID), nil
}

// callers hold the lock for the helpers below

func (r assetStore) inventoryTaken(inventoryNumber, exceptID string) bool {
	for id, asset := range r.s.assets {
		if id != exceptID && asset.InventoryNumber == inventoryNumber {
			return true
		}
	}
	return false
}

func (r assetStore) linkCount(assetID string) int {
	n := 0
	for _, linked := range r.s.links {
		if _, ok := linked[assetID]; ok {
			n++
		}
	}
	return n
}

func (r assetStore) linkedToAssignee(assetID, staffID string) bool {
	for ticketID, linked := range r.s.links {
		if _, ok := linked[assetID]; !ok {
			continue
		}
		if t, ok := r.s.tickets[ticketID]; ok && t.IsAssignedTo(staffID) {
			return true
		}
	}
	return false
}

func assetMatches(a *domain.Asset, term string) bool {
	for _, field := range []string{a.InventoryNumber, a.Name, a.Location, a.Details} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func copyAsset(a domain.Asset) domain.Asset {
	a.BitLockerKey = copyString(a.BitLockerKey)
	if a.PurchaseDate != nil {
		d := *a.PurchaseDate
		a.PurchaseDate = &d
	}
	return a
}
