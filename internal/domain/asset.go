package domain

import (
	"regexp"
	"time"
)

// AssetType classifies inventory items.
type AssetType string

const (
	AssetTypeAV         AssetType = "A/V"
	AssetTypeComputer   AssetType = "COM"
	AssetTypeMonitor    AssetType = "MON"
	AssetTypeNetwork    AssetType = "NET"
	AssetTypePeripheral AssetType = "PER"
	AssetTypePrinter    AssetType = "PRT"
	AssetTypeProjector  AssetType = "PRJ"
	AssetTypeServer     AssetType = "SRV"
	AssetTypeSoftware   AssetType = "SFT"
	AssetTypeOther      AssetType = "OTH"
)

var assetTypeLabels = map[AssetType]string{
	AssetTypeAV:         "A/V Equipment",
	AssetTypeComputer:   "Computer",
	AssetTypeMonitor:    "Monitor",
	AssetTypeNetwork:    "Network Equipment",
	AssetTypePeripheral: "Peripheral",
	AssetTypePrinter:    "Printer",
	AssetTypeProjector:  "Projector",
	AssetTypeServer:     "Server",
	AssetTypeSoftware:   "Software",
	AssetTypeOther:      "Other",
}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	_, ok := assetTypeLabels[t]
	return ok
}

// Label returns the display name of the asset type.
func (t AssetType) Label() string {
	if label, ok := assetTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Asset is a tracked inventory item. InventoryNumber is the natural key.
type Asset struct {
	ID              string
	InventoryNumber string
	Name            string
	Type            AssetType
	Location        string
	Details         string
	PurchaseDate    *time.Time
	IsActive        bool
	BitLockerKey    *string
	UpdatedAt       time.Time
}

// Unknown location assigned to assets created from a ticket submission.
const UnknownAssetLocation = "Unknown"

var (
	bitLockerSeparators = regexp.MustCompile(`[\s-]`)
	bitLockerDigits     = regexp.MustCompile(`^\d{48}$`)
)

// ValidBitLockerKey reports whether key holds exactly 48 digits once spaces
// and hyphens are removed.
func ValidBitLockerKey(key string) bool {
	return bitLockerDigits.MatchString(bitLockerSeparators.ReplaceAllString(key, ""))
}
