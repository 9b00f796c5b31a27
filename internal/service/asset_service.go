package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/policy"
	"github.com/campus-it/helpdesk/internal/repository"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
	"github.com/campus-it/helpdesk/pkg/util/validate"
)

// AssetService manages the asset registry and ticket links.
type AssetService struct {
	assets   repository.AssetRepository
	tickets  repository.TicketRepository
	settings *SettingsService
	logger   *zap.Logger
}

// AssetDependencies bundles collaborators for the asset service.
type AssetDependencies struct {
	AssetRepo  repository.AssetRepository
	TicketRepo repository.TicketRepository
	Settings   *SettingsService
	Logger     *zap.Logger
}

// AssetInput is the editable part of an asset.
type AssetInput struct {
	InventoryNumber string           `json:"inventory_number" validate:"required,max=50"`
	Name            string           `json:"name" validate:"required,max=100"`
	Type            domain.AssetType `json:"asset_type" validate:"required"`
	Location        string           `json:"location" validate:"max=100"`
	Details         string           `json:"details"`
	PurchaseDate    *time.Time       `json:"purchase_date"`
	IsActive        bool             `json:"is_active"`
	BitLockerKey    *string          `json:"bitlocker_key"`
}

// AssetListFilter describes the asset list query.
type AssetListFilter struct {
	Search string
	Type   *domain.AssetType
	Active *bool
	Sort   string
	Limit  int
	Offset int
}

// AssetPage is one page of assets.
type AssetPage struct {
	Items []domain.Asset
	Total int
}

// NewAssetService constructs the service.
func NewAssetService(deps AssetDependencies) *AssetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{
		assets:   deps.AssetRepo,
		tickets:  deps.TicketRepo,
		settings: deps.Settings,
		logger:   logger,
	}
}

// LinkOrCreate links the asset with inventoryNumber to ticket, creating a
// placeholder asset when none exists. An existing asset takes assetType when
// it differs. Linking twice is a no-op.
func (s *AssetService) LinkOrCreate(ctx context.Context, ticket *domain.Ticket, inventoryNumber string, assetType domain.AssetType) (*domain.Asset, error) {
	inventoryNumber = strings.TrimSpace(inventoryNumber)
	if inventoryNumber == "" {
		return nil, apperrors.NewValidationError("inventory_number is required", nil)
	}
	if !assetType.Valid() {
		return nil, apperrors.NewValidationError("asset_type is invalid", map[string]any{"asset_type": assetType})
	}

	asset, err := s.assets.GetByInventoryNumber(ctx, inventoryNumber)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		asset, err = s.createPlaceholder(ctx, ticket, inventoryNumber, assetType)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, apperrors.MapError(err)
	case asset.Type != assetType:
		asset.Type = assetType
		if err := s.assets.Update(ctx, asset); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if _, err := s.assets.LinkTicket(ctx, ticket.ID, asset.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

func (s *AssetService) createPlaceholder(ctx context.Context, ticket *domain.Ticket, inventoryNumber string, assetType domain.AssetType) (*domain.Asset, error) {
	asset := &domain.Asset{
		InventoryNumber: inventoryNumber,
		Name:            "Asset " + inventoryNumber,
		Type:            assetType,
		Location:        domain.UnknownAssetLocation,
		Details:         "Created from ticket " + ticket.TicketNumber,
		IsActive:        true,
	}
	err := s.assets.Create(ctx, asset)
	if errors.Is(err, repository.ErrDuplicate) {
		// created concurrently; use the winner
		existing, getErr := s.assets.GetByInventoryNumber(ctx, inventoryNumber)
		if getErr != nil {
			return nil, apperrors.MapError(getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("asset created from ticket",
		zap.String("inventory_number", inventoryNumber),
		zap.String("ticket_number", ticket.TicketNumber))
	return asset, nil
}

// AddToTicket links an existing asset to a ticket the caller can see.
func (s *AssetService) AddToTicket(ctx context.Context, staff *domain.StaffMember, ticketNumber, inventoryNumber string) (*domain.Asset, error) {
	ticket, err := s.ticketForStaff(ctx, staff, ticketNumber)
	if err != nil {
		return nil, err
	}
	asset, err := s.assets.GetByInventoryNumber(ctx, strings.TrimSpace(inventoryNumber))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("asset", map[string]any{"inventory_number": inventoryNumber})
		}
		return nil, apperrors.MapError(err)
	}
	created, err := s.assets.LinkTicket(ctx, ticket.ID, asset.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !created {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("asset %s is already linked to this ticket", asset.InventoryNumber),
			map[string]any{"inventory_number": asset.InventoryNumber, "ticket_number": ticket.TicketNumber})
	}
	return asset, nil
}

// RemoveFromTicket drops the link between a ticket and an asset.
func (s *AssetService) RemoveFromTicket(ctx context.Context, staff *domain.StaffMember, ticketNumber, assetID string) error {
	ticket, err := s.ticketForStaff(ctx, staff, ticketNumber)
	if err != nil {
		return err
	}
	if err := s.assets.UnlinkTicket(ctx, ticket.ID, assetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("asset link", map[string]any{"asset_id": assetID, "ticket_number": ticketNumber})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListForTicket returns the assets linked to a ticket.
func (s *AssetService) ListForTicket(ctx context.Context, ticketID string) ([]domain.Asset, error) {
	assets, err := s.assets.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assets, nil
}

// List returns the assets visible to staff. Without asset visibility the list
// is scoped to assets linked to the caller's tickets.
func (s *AssetService) List(ctx context.Context, staff *domain.StaffMember, filter AssetListFilter) (AssetPage, error) {
	if err := requireStaff(staff); err != nil {
		return AssetPage{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return AssetPage{}, err
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	repoFilter := repository.AssetFilter{
		Search: filter.Search,
		Type:   filter.Type,
		Active: filter.Active,
		Sort:   filter.Sort,
		Limit:  limit,
		Offset: offset,
	}
	if !policy.Allowed(policy.AssetListAll, policy.Request{Actor: staff, Settings: settings}) {
		repoFilter.AssigneeID = &staff.ID
	}
	items, total, err := s.assets.List(ctx, repoFilter)
	if err != nil {
		return AssetPage{}, apperrors.MapError(err)
	}
	return AssetPage{Items: items, Total: total}, nil
}

// Get returns one asset by inventory number.
func (s *AssetService) Get(ctx context.Context, staff *domain.StaffMember, inventoryNumber string) (*domain.Asset, error) {
	asset, settings, owns, err := s.loadForStaff(ctx, staff, inventoryNumber)
	if err != nil {
		return nil, err
	}
	if err := authorize(policy.AssetView, policy.Request{Actor: staff, Settings: settings, Owns: owns}); err != nil {
		return nil, err
	}
	return asset, nil
}

// ModifiableBy reports whether staff may update asset. Callers use it to decide
// whether sensitive fields such as the BitLocker key are shown.
func (s *AssetService) ModifiableBy(ctx context.Context, staff *domain.StaffMember, asset *domain.Asset) (bool, error) {
	if staff == nil {
		return false, nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	owns, err := s.assets.LinkedToAssignee(ctx, asset.ID, staff.ID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return policy.Allowed(policy.AssetUpdate, policy.Request{Actor: staff, Settings: settings, Owns: owns}), nil
}

// Create registers a new asset.
func (s *AssetService) Create(ctx context.Context, staff *domain.StaffMember, input AssetInput) (*domain.Asset, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(policy.AssetCreate, policy.Request{Actor: staff, Settings: settings}); err != nil {
		return nil, err
	}
	if err := validateAssetInput(&input); err != nil {
		return nil, err
	}

	asset := &domain.Asset{}
	applyAssetInput(asset, input)
	if err := s.assets.Create(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("inventory number already exists",
				map[string]any{"inventory_number": input.InventoryNumber})
		}
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// Update replaces the editable fields of an asset.
func (s *AssetService) Update(ctx context.Context, staff *domain.StaffMember, inventoryNumber string, input AssetInput) (*domain.Asset, error) {
	asset, settings, owns, err := s.loadForStaff(ctx, staff, inventoryNumber)
	if err != nil {
		return nil, err
	}
	if err := authorize(policy.AssetUpdate, policy.Request{Actor: staff, Settings: settings, Owns: owns}); err != nil {
		return nil, err
	}
	if err := validateAssetInput(&input); err != nil {
		return nil, err
	}

	applyAssetInput(asset, input)
	if err := s.assets.Update(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("inventory number already exists",
				map[string]any{"inventory_number": input.InventoryNumber})
		}
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// Delete removes an asset that no ticket references.
func (s *AssetService) Delete(ctx context.Context, staff *domain.StaffMember, inventoryNumber string) error {
	asset, settings, _, err := s.loadForStaff(ctx, staff, inventoryNumber)
	if err != nil {
		return err
	}
	if err := authorize(policy.AssetDelete, policy.Request{Actor: staff, Settings: settings}); err != nil {
		return err
	}

	links, err := s.assets.LinkCount(ctx, asset.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if links > 0 {
		return assetInUse(asset, links)
	}
	if err := s.assets.Delete(ctx, asset.ID); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return assetInUse(asset, links)
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("asset deleted", zap.String("inventory_number", asset.InventoryNumber), zap.String("staff_id", staff.ID))
	return nil
}

func assetInUse(asset *domain.Asset, links int) error {
	return apperrors.NewIntegrityError(
		"asset is linked to tickets and cannot be deleted",
		map[string]any{"inventory_number": asset.InventoryNumber, "linked_tickets": links})
}

func (s *AssetService) loadForStaff(ctx context.Context, staff *domain.StaffMember, inventoryNumber string) (*domain.Asset, domain.Settings, bool, error) {
	if err := requireStaff(staff); err != nil {
		return nil, domain.Settings{}, false, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, domain.Settings{}, false, err
	}
	asset, err := s.assets.GetByInventoryNumber(ctx, inventoryNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, settings, false, apperrors.NewNotFound("asset", map[string]any{"inventory_number": inventoryNumber})
		}
		return nil, settings, false, apperrors.MapError(err)
	}
	owns, err := s.assets.LinkedToAssignee(ctx, asset.ID, staff.ID)
	if err != nil {
		return nil, settings, false, apperrors.MapError(err)
	}
	return asset, settings, owns, nil
}

func (s *AssetService) ticketForStaff(ctx context.Context, staff *domain.StaffMember, number string) (*domain.Ticket, error) {
	if err := requireStaff(staff); err != nil {
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
	req := policy.Request{Actor: staff, Settings: settings, Owns: ticket.IsAssignedTo(staff.ID)}
	if err := authorize(policy.TicketView, req); err != nil {
		return nil, err
	}
	return ticket, nil
}

func validateAssetInput(input *AssetInput) error {
	input.InventoryNumber = strings.TrimSpace(input.InventoryNumber)
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return err
	}
	if !input.Type.Valid() {
		return apperrors.NewValidationError("asset_type is invalid", map[string]any{"asset_type": input.Type})
	}
	if input.BitLockerKey != nil {
		key := strings.TrimSpace(*input.BitLockerKey)
		if key == "" {
			input.BitLockerKey = nil
		} else if !domain.ValidBitLockerKey(key) {
			return apperrors.NewValidationError("BitLocker key must contain exactly 48 digits",
				map[string]any{"bitlocker_key": "must contain exactly 48 digits"})
		} else {
			input.BitLockerKey = &key
		}
	}
	return nil
}

func applyAssetInput(asset *domain.Asset, input AssetInput) {
	asset.InventoryNumber = input.InventoryNumber
	asset.Name = input.Name
	asset.Type = input.Type
	asset.Location = input.Location
	asset.Details = input.Details
	asset.PurchaseDate = input.PurchaseDate
	asset.IsActive = input.IsActive
	asset.BitLockerKey = input.BitLockerKey
}
