package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
)

// ErrNotFound is returned by writes that target a row that does not exist.
var ErrNotFound = errors.New("not found")

// Querier is satisfied by both *sql.DB and *sql.Tx, so the same functions run
// standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const assetColumns = `id, serial_number, name, brand, category, notes, phone_number, is_rental,
	status, assigned_to, employee_id, department, position, assigned_date, is_central, location,
	image_mime, is_deleted, deleted_at, deleted_by, delete_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(s rowScanner) (*model.Asset, error) {
	a := &model.Asset{}
	var employeeID, department, position, imageMime, deletedBy, deleteReason sql.NullString
	err := s.Scan(&a.ID, &a.SerialNumber, &a.Name, &a.Brand, &a.Category, &a.Notes, &a.PhoneNumber, &a.IsRental,
		&a.Status, &a.AssignedTo, &employeeID, &department, &position, &a.AssignedDate, &a.IsCentral, &a.Location,
		&imageMime, &a.IsDeleted, &a.DeletedAt, &deletedBy, &deleteReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.EmployeeID = employeeID.String
	a.Department = department.String
	a.Position = position.String
	a.ImageMime = imageMime.String
	a.DeletedBy = deletedBy.String
	a.DeleteReason = deleteReason.String
	return a, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// InsertAsset stores a new asset. ID, CreatedAt and UpdatedAt are assigned
// here and written back into a.
func InsertAsset(ctx context.Context, q Querier, a *model.Asset) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.StatusAvailable
	}
	if a.Category == "" {
		a.Category = model.CategoryOther
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO assets (id, serial_number, name, brand, category, notes, phone_number, is_rental,
		     status, assigned_to, employee_id, department, position, assigned_date, is_central, location,
		     created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SerialNumber, a.Name, a.Brand, string(a.Category), a.Notes, a.PhoneNumber, a.IsRental,
		string(a.Status), a.AssignedTo, nullable(a.EmployeeID), nullable(a.Department), nullable(a.Position),
		a.AssignedDate, a.IsCentral, a.Location, now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

// GetAsset returns an asset by ID, including soft-deleted ones.
func GetAsset(ctx context.Context, q Querier, id string) (*model.Asset, error) {
	a, err := scanAsset(q.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// ListActiveAssets returns all assets that are not soft-deleted, oldest first.
func ListActiveAssets(ctx context.Context, db *sql.DB) ([]model.Asset, error) {
	return listAssets(ctx, db, `WHERE is_deleted = 0`)
}

// ListAllAssets returns every asset including soft-deleted ones, oldest first.
func ListAllAssets(ctx context.Context, db *sql.DB) ([]model.Asset, error) {
	return listAssets(ctx, db, ``)
}

func listAssets(ctx context.Context, db *sql.DB, where string) ([]model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets `+where+` ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// SaveAsset overwrites every mutable column of an existing asset.
func SaveAsset(ctx context.Context, q Querier, a *model.Asset) error {
	a.UpdatedAt = time.Now().UTC()
	result, err := q.ExecContext(ctx,
		`UPDATE assets SET serial_number = ?, name = ?, brand = ?, category = ?, notes = ?, phone_number = ?,
		     is_rental = ?, status = ?, assigned_to = ?, employee_id = ?, department = ?, position = ?,
		     assigned_date = ?, is_central = ?, location = ?, is_deleted = ?, deleted_at = ?,
		     deleted_by = ?, delete_reason = ?, updated_at = ?
		 WHERE id = ?`,
		a.SerialNumber, a.Name, a.Brand, string(a.Category), a.Notes, a.PhoneNumber,
		a.IsRental, string(a.Status), a.AssignedTo, nullable(a.EmployeeID), nullable(a.Department), nullable(a.Position),
		a.AssignedDate, a.IsCentral, a.Location, a.IsDeleted, a.DeletedAt,
		nullable(a.DeletedBy), nullable(a.DeleteReason), a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("saving asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving asset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("saving asset %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// SetAssetImage sets an asset's photo.
func SetAssetImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE assets SET image = ?, image_mime = ?, updated_at = ?
		 WHERE id = ? AND is_deleted = 0`,
		image, mime, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting asset image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("setting asset image: %w", ErrNotFound)
	}
	return nil
}

// GetAssetImage returns an asset's photo and MIME type.
func GetAssetImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM assets WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting asset image: %w", err)
	}
	return image, mime.String, nil
}
