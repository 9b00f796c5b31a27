package dto

import (
	"time"

	"github.com/campus-it/helpdesk/internal/domain"
)

// AssetResponse describes an asset. The BitLocker key is only included for
// callers allowed to modify the asset.
type AssetResponse struct {
	ID              string           `json:"id"`
	InventoryNumber string           `json:"inventory_number"`
	Name            string           `json:"name"`
	Type            domain.AssetType `json:"asset_type"`
	TypeLabel       string           `json:"asset_type_label"`
	Location        string           `json:"location"`
	Details         string           `json:"details"`
	PurchaseDate    *time.Time       `json:"purchase_date"`
	IsActive        bool             `json:"is_active"`
	BitLockerKey    *string          `json:"bitlocker_key,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AssetListResponse is one page of assets.
type AssetListResponse struct {
	Items []AssetResponse `json:"items"`
	Total int             `json:"total"`
}
