package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"it-asset-tracker/internal/lifecycle"
	"it-asset-tracker/internal/model"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Custom errors for better error handling
var (
	ErrAssetNotFound         = errors.New("asset not found")
	ErrDuplicateAssetID      = errors.New("asset with this asset ID already exists")
	ErrDuplicateSerialNumber = errors.New("asset with this serial number already exists")
	ErrVersionConflict       = errors.New("asset was modified concurrently")
)

// Constraint names created by the migrations and index sync.
const (
	AssetIDConstraint      = "assets_asset_id_key"
	SerialNumberConstraint = "assets_serial_number_key"
	uniqueViolation        = "23505"
)

const assetColumns = `id, asset_id, serial_number, category, status, model, location, comment,
	purchase_price, warranty_expiry_date, purchase_date,
	assignee_name, position, employee_email, phone_number, department,
	damage_description, is_deleted, version, created_at, updated_at`

// AssetRepository is an interface for interacting with asset data.
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset model.Asset) error
	GetAssetByID(ctx context.Context, id uuid.UUID) (*model.Asset, error)
	FindByAssetID(ctx context.Context, assetID string) (*model.Asset, error)
	FindBySerialNumber(ctx context.Context, serialNumber string) (*model.Asset, error)
	UpdateAsset(ctx context.Context, asset model.Asset, expectedVersion int) (*model.Asset, error)
	SoftDeleteAsset(ctx context.Context, id uuid.UUID, at time.Time) (*model.Asset, error)
	PurgeAsset(ctx context.Context, id uuid.UUID) error

	ListActive(ctx context.Context) ([]model.Asset, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error)
	ListRemoved(ctx context.Context) ([]model.Asset, error)
	Summary(ctx context.Context) (model.Summary, error)
	TotalValue(ctx context.Context) (float64, error)
	CountByCategory(ctx context.Context, category string) (int, error)
	ExpiringWarranty(ctx context.Context, from, to time.Time, excluded []model.Status) ([]model.Asset, error)

	DuplicateSerialGroups(ctx context.Context) ([]lifecycle.SerialGroup, error)
	SerialNumberExists(ctx context.Context, serialNumber string) (bool, error)
	UpdateSerialNumber(ctx context.Context, id uuid.UUID, serialNumber string) error
}

// assetRepository is the concrete implementation of the AssetRepository interface.
type assetRepository struct {
	DB *sql.DB
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{DB: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*model.Asset, error) {
	var (
		a                                    model.Asset
		status                               string
		serial, modelName, location, comment sql.NullString
		assignee, position, email, phone     sql.NullString
		department, damage                   sql.NullString
		warranty, purchased                  sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.AssetID, &serial, &a.Category, &status, &modelName, &location, &comment,
		&a.PurchasePrice, &warranty, &purchased,
		&assignee, &position, &email, &phone, &department,
		&damage, &a.IsDeleted, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.Status(status)
	a.SerialNumber = serial.String
	a.Model = modelName.String
	a.Location = location.String
	a.Comment = comment.String
	a.AssigneeName = assignee.String
	a.Position = position.String
	a.EmployeeEmail = email.String
	a.PhoneNumber = phone.String
	a.Department = department.String
	a.DamageDescription = damage.String
	if warranty.Valid {
		t := warranty.Time
		a.WarrantyExpiryDate = &t
	}
	if purchased.Valid {
		t := purchased.Time
		a.PurchaseDate = &t
	}
	return &a, nil
}

func scanAssets(rows *sql.Rows) ([]model.Asset, error) {
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return assets, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// mapUniqueViolation turns a unique index violation into the matching sentinel.
func mapUniqueViolation(err error) error {
	constraint := ""
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != uniqueViolation {
			return nil
		}
		constraint = pqErr.Constraint
	}
	if constraint == "" && strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		constraint = err.Error()
	}
	switch {
	case strings.Contains(constraint, SerialNumberConstraint):
		return ErrDuplicateSerialNumber
	case strings.Contains(constraint, AssetIDConstraint):
		return ErrDuplicateAssetID
	}
	return nil
}

// CreateAsset adds a new asset to the database.
func (r *assetRepository) CreateAsset(ctx context.Context, a model.Asset) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.DB.ExecContext(ctx, query,
		a.ID,
		a.AssetID,
		nullString(a.SerialNumber),
		a.Category,
		string(a.Status),
		nullString(a.Model),
		nullString(a.Location),
		nullString(a.Comment),
		a.PurchasePrice,
		nullTime(a.WarrantyExpiryDate),
		nullTime(a.PurchaseDate),
		nullString(a.AssigneeName),
		nullString(a.Position),
		nullString(a.EmployeeEmail),
		nullString(a.PhoneNumber),
		nullString(a.Department),
		nullString(a.DamageDescription),
		a.IsDeleted,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// GetAssetByID retrieves a single asset by its storage ID, deleted or not.
func (r *assetRepository) GetAssetByID(ctx context.Context, id uuid.UUID) (*model.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, "ID", id)
}

// FindByAssetID retrieves an asset by its human-readable identifier.
func (r *assetRepository) FindByAssetID(ctx context.Context, assetID string) (*model.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_id = $1`, "asset ID", assetID)
}

// FindBySerialNumber retrieves an asset by its serial number.
func (r *assetRepository) FindBySerialNumber(ctx context.Context, serialNumber string) (*model.Asset, error) {
	return r.getOne(ctx, `SELECT `+assetColumns+` FROM assets WHERE serial_number = $1 LIMIT 1`, "serial number", serialNumber)
}

func (r *assetRepository) getOne(ctx context.Context, query, by string, arg any) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a, err := scanAsset(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset by %s: %w", by, err)
	}
	return a, nil
}

// UpdateAsset writes every mutable column of an asset in a single statement
// and bumps its version. When expectedVersion is positive the write only
// applies to that version. A stored deletion flag is never cleared.
func (r *assetRepository) UpdateAsset(ctx context.Context, a model.Asset, expectedVersion int) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE assets
		SET asset_id = $1, serial_number = $2, category = $3, status = $4, model = $5,
			location = $6, comment = $7, purchase_price = $8, warranty_expiry_date = $9,
			purchase_date = $10, assignee_name = $11, position = $12, employee_email = $13,
			phone_number = $14, department = $15, damage_description = $16, is_deleted = is_deleted OR $17,
			version = version + 1, updated_at = $18
		WHERE id = $19 AND ($20 = 0 OR version = $20)
		RETURNING ` + assetColumns

	row := r.DB.QueryRowContext(ctx, query,
		a.AssetID,
		nullString(a.SerialNumber),
		a.Category,
		string(a.Status),
		nullString(a.Model),
		nullString(a.Location),
		nullString(a.Comment),
		a.PurchasePrice,
		nullTime(a.WarrantyExpiryDate),
		nullTime(a.PurchaseDate),
		nullString(a.AssigneeName),
		nullString(a.Position),
		nullString(a.EmployeeEmail),
		nullString(a.PhoneNumber),
		nullString(a.Department),
		nullString(a.DamageDescription),
		a.IsDeleted,
		a.UpdatedAt,
		a.ID,
		expectedVersion,
	)

	updated, err := scanAsset(row)
	if err == nil {
		return updated, nil
	}
	if dup := mapUniqueViolation(err); dup != nil {
		return nil, dup
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	if expectedVersion <= 0 {
		return nil, ErrAssetNotFound
	}

	exists, err := r.exists(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionConflict
	}
	return nil, ErrAssetNotFound
}

func (r *assetRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM assets WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check asset existence: %w", err)
	}
	return exists, nil
}

// SoftDeleteAsset marks an asset as deleted without touching its status.
func (r *assetRepository) SoftDeleteAsset(ctx context.Context, id uuid.UUID, at time.Time) (*model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE assets
		SET is_deleted = TRUE, version = version + 1, updated_at = $1
		WHERE id = $2
		RETURNING ` + assetColumns

	a, err := scanAsset(r.DB.QueryRowContext(ctx, query, at, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to soft delete asset: %w", err)
	}
	return a, nil
}

// PurgeAsset permanently deletes an asset.
func (r *assetRepository) PurgeAsset(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.DB.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to purge asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// ListActive retrieves all non-deleted assets, newest first.
func (r *assetRepository) ListActive(ctx context.Context) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE is_deleted = FALSE
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	return scanAssets(rows)
}

// ListByStatus retrieves non-deleted assets in one status, newest first.
func (r *assetRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE is_deleted = FALSE AND status = $1
		ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query assets by status: %w", err)
	}
	return scanAssets(rows)
}

// ListRemoved retrieves assets in status Removed or soft-deleted, most
// recently changed first.
func (r *assetRepository) ListRemoved(ctx context.Context) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE status = $1 OR is_deleted = TRUE
		ORDER BY updated_at DESC`, string(model.StatusRemoved))
	if err != nil {
		return nil, fmt.Errorf("failed to query removed assets: %w", err)
	}
	return scanAssets(rows)
}

// Summary counts assets per status in one statement so every row is counted
// against the same snapshot.
func (r *assetRepository) Summary(ctx context.Context) (model.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_deleted = FALSE),
			COUNT(*) FILTER (WHERE is_deleted = FALSE AND status = $1),
			COUNT(*) FILTER (WHERE is_deleted = FALSE AND status = $2),
			COUNT(*) FILTER (WHERE is_deleted = FALSE AND status = $3),
			COUNT(*) FILTER (WHERE is_deleted = FALSE AND status = $4),
			COUNT(*) FILTER (WHERE status = $5 OR is_deleted = TRUE)
		FROM assets`

	var s model.Summary
	err := r.DB.QueryRowContext(ctx, query,
		string(model.StatusInUse),
		string(model.StatusInStock),
		string(model.StatusDamaged),
		string(model.StatusEWaste),
		string(model.StatusRemoved),
	).Scan(&s.TotalAssets, &s.InUse, &s.InStock, &s.Damaged, &s.EWaste, &s.Removed)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to summarize assets: %w", err)
	}
	return s, nil
}

// TotalValue sums the purchase price of all non-deleted assets.
func (r *assetRepository) TotalValue(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var total float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(purchase_price), 0) FROM assets WHERE is_deleted = FALSE`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum asset value: %w", err)
	}
	return total, nil
}

// CountByCategory counts non-deleted assets with exactly this category.
func (r *assetRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE category = $1 AND is_deleted = FALSE`, category,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assets by category: %w", err)
	}
	return count, nil
}

// ExpiringWarranty retrieves non-deleted assets whose warranty ends within
// [from, to] and whose status is not excluded.
func (r *assetRepository) ExpiringWarranty(ctx context.Context, from, to time.Time, excluded []model.Status) ([]model.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	statuses := make([]string, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE is_deleted = FALSE
			AND warranty_expiry_date IS NOT NULL
			AND warranty_expiry_date >= $1
			AND warranty_expiry_date <= $2
			AND NOT (status = ANY($3))`, from, to, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring warranties: %w", err)
	}
	return scanAssets(rows)
}

// DuplicateSerialGroups lists every non-empty serial number held by more than
// one record, active or deleted. IDs are ordered by creation time then ID.
func (r *assetRepository) DuplicateSerialGroups(ctx context.Context) ([]lifecycle.SerialGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT serial_number, array_agg(id::text ORDER BY created_at, id)
		FROM assets
		WHERE serial_number IS NOT NULL AND serial_number <> ''
		GROUP BY serial_number
		HAVING COUNT(*) > 1
		ORDER BY serial_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate serial numbers: %w", err)
	}
	defer rows.Close()

	var groups []lifecycle.SerialGroup
	for rows.Next() {
		var (
			serial string
			raw    pq.StringArray
		)
		if err := rows.Scan(&serial, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		group := lifecycle.SerialGroup{SerialNumber: serial}
		for _, s := range raw {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid asset id %q in duplicate group: %w", s, err)
			}
			group.IDs = append(group.IDs, id)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return groups, nil
}

// SerialNumberExists checks if any record, active or deleted, holds serialNumber.
func (r *assetRepository) SerialNumberExists(ctx context.Context, serialNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM assets WHERE serial_number = $1)`, serialNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check serial number existence: %w", err)
	}
	return exists, nil
}

// UpdateSerialNumber rewrites the serial number of one record.
func (r *assetRepository) UpdateSerialNumber(ctx context.Context, id uuid.UUID, serialNumber string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.DB.ExecContext(ctx,
		`UPDATE assets SET serial_number = $1, version = version + 1 WHERE id = $2`,
		serialNumber, id,
	)
	if err != nil {
		if dup := mapUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update serial number: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}
