package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-it/helpdesk/internal/domain"
)

// DefaultAssetSort orders assets by inventory number.
const DefaultAssetSort = "inventory_number"

// AssetSortOptions maps accepted sort keys to SQL ordering.
var AssetSortOptions = map[string]string{
	"inventory_number":  "inventory_number ASC",
	"-inventory_number": "inventory_number DESC",
	"name":              "name ASC",
	"-name":             "name DESC",
	"type":              "asset_type ASC",
	"-type":             "asset_type DESC",
	"location":          "location ASC",
	"-location":         "location DESC",
}

// AssetFilter captures asset list parameters.
type AssetFilter struct {
	// AssigneeID limits results to assets linked to tickets assigned to this
	// staff member.
	AssigneeID *string
	Search     string
	Type       *domain.AssetType
	Active     *bool
	Sort       string
	Limit      int
	Offset     int
}

// AssetRepository persists assets and their ticket links.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	GetByInventoryNumber(ctx context.Context, inventoryNumber string) (*domain.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]domain.Asset, int, error)

	// LinkTicket is idempotent and reports whether a new link was created.
	LinkTicket(ctx context.Context, ticketID, assetID string) (bool, error)
	UnlinkTicket(ctx context.Context, ticketID, assetID string) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Asset, error)
	LinkCount(ctx context.Context, assetID string) (int, error)
	LinkedToAssignee(ctx context.Context, assetID, staffID string) (bool, error)
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository instantiates repository.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

const assetColumns = `a.id, a.inventory_number, a.name, a.asset_type, a.location, a.details, a.purchase_date,
               a.is_active, a.bitlocker_key, a.updated_at`

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	const query = `
        INSERT INTO assets (inventory_number, name, asset_type, location, details, purchase_date, is_active, bitlocker_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, updated_at`
	err := r.pool.QueryRow(ctx, query,
		asset.InventoryNumber,
		asset.Name,
		asset.Type,
		asset.Location,
		asset.Details,
		asset.PurchaseDate,
		asset.IsActive,
		asset.BitLockerKey,
	).Scan(&asset.ID, &asset.UpdatedAt)
	return translate(err)
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	const query = `
        UPDATE assets SET inventory_number=$1, name=$2, asset_type=$3, location=$4, details=$5, purchase_date=$6,
            is_active=$7, bitlocker_key=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		asset.InventoryNumber,
		asset.Name,
		asset.Type,
		asset.Location,
		asset.Details,
		asset.PurchaseDate,
		asset.IsActive,
		asset.BitLockerKey,
		asset.ID,
	).Scan(&asset.UpdatedAt)
	return translate(err)
}

// Delete fails with ErrReferenced while any ticket links the asset.
func (r *assetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	return r.fetchSingle(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id=$1`, id)
}

func (r *assetRepository) GetByInventoryNumber(ctx context.Context, inventoryNumber string) (*domain.Asset, error) {
	return r.fetchSingle(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.inventory_number=$1`, inventoryNumber)
}

func (r *assetRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Asset, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assets, err := scanAssets(rows)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, ErrNotFound
	}
	return &assets[0], nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM ticket_assets ta JOIN tickets t ON t.id = ta.ticket_id
            WHERE ta.asset_id = a.id AND t.assigned_to_id = $%d)`, len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("a.asset_type=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("a.is_active=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(a.inventory_number) LIKE %[1]s OR LOWER(a.name) LIKE %[1]s OR LOWER(a.location) LIKE %[1]s OR LOWER(a.details) LIKE %[1]s)", p))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assets a WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := AssetSortOptions[filter.Sort]
	if !ok {
		order = AssetSortOptions[DefaultAssetSort]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM assets a WHERE %s ORDER BY a.%s LIMIT %d OFFSET %d`,
		assetColumns, where, order, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	assets, err := scanAssets(rows)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *assetRepository) LinkTicket(ctx context.Context, ticketID, assetID string) (bool, error) {
	const query = `INSERT INTO ticket_assets (ticket_id, asset_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, ticketID, assetID)
	if err != nil {
		return false, translate(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *assetRepository) UnlinkTicket(ctx context.Context, ticketID, assetID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_assets WHERE ticket_id=$1 AND asset_id=$2`, ticketID, assetID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assetRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets a
        JOIN ticket_assets ta ON ta.asset_id = a.id
        WHERE ta.ticket_id=$1 ORDER BY a.inventory_number ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func (r *assetRepository) LinkCount(ctx context.Context, assetID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_assets WHERE asset_id=$1`, assetID).Scan(&n)
	return n, err
}

func (r *assetRepository) LinkedToAssignee(ctx context.Context, assetID, staffID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM ticket_assets ta JOIN tickets t ON t.id = ta.ticket_id
            WHERE ta.asset_id=$1 AND t.assigned_to_id=$2)`
	var linked bool
	err := r.pool.QueryRow(ctx, query, assetID, staffID).Scan(&linked)
	return linked, err
}

func scanAssets(rows pgx.Rows) ([]domain.Asset, error) {
	var result []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.InventoryNumber,
			&asset.Name,
			&asset.Type,
			&asset.Location,
			&asset.Details,
			&asset.PurchaseDate,
			&asset.IsActive,
			&asset.BitLockerKey,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}
