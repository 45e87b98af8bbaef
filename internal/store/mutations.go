package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// MaxBatchWrites is the most writes committed together in one chunk.
const MaxBatchWrites = 450

// Patch maps asset columns to new values for a field-level update.
type Patch map[string]any

// patchable lists the asset columns a Patch may touch.
var patchable = map[string]bool{
	"serial_number": true,
	"name":          true,
	"brand":         true,
	"category":      true,
	"notes":         true,
	"phone_number":  true,
	"is_rental":     true,
	"status":        true,
	"assigned_to":   true,
	"employee_id":   true,
	"department":    true,
	"position":      true,
	"assigned_date": true,
	"is_central":    true,
	"location":      true,
	"is_deleted":    true,
	"deleted_at":    true,
	"deleted_by":    true,
	"delete_reason": true,
}

// CustodyPatch returns the columns that describe who holds an asset. Custody
// columns are always written together.
func CustodyPatch(c model.Custody) Patch {
	return Patch{
		"assigned_to":   c.AssignedTo,
		"employee_id":   nullable(c.EmployeeID),
		"department":    nullable(c.Department),
		"position":      nullable(c.Position),
		"assigned_date": c.AssignedDate,
		"is_central":    c.IsCentral,
		"location":      c.Location,
	}
}

// Merge copies other into p and returns p.
func (p Patch) Merge(other Patch) Patch {
	for k, v := range other {
		p[k] = v
	}
	return p
}

// Write is one queued operation. Exactly one field is set.
type Write struct {
	Insert *model.Asset
	Update *AssetUpdate
	Audit  *model.AuditLogEntry
}

// AssetUpdate is a field-level update of one asset.
type AssetUpdate struct {
	ID     string
	Fields Patch
}

// InsertWrite queues the creation of a.
func InsertWrite(a *model.Asset) Write { return Write{Insert: a} }

func (w Write) touchesAsset() bool { return w.Insert != nil || w.Update != nil }

func countAssetWrites(writes []Write) int {
	n := 0
	for _, w := range writes {
		if w.touchesAsset() {
			n++
		}
	}
	return n
}

// UpdateWrite queues a field-level update of asset id.
func UpdateWrite(id string, fields Patch) Write {
	return Write{Update: &AssetUpdate{ID: id, Fields: fields}}
}

// AuditWrite queues an audit append.
func AuditWrite(e *model.AuditLogEntry) Write { return Write{Audit: e} }

// PartialError reports a chunked apply that stopped part way. Chunks before
// the failing one stay committed. Committed and Total count writes, audit
// appends included; AssetsCommitted and AssetsTotal count asset writes only.
type PartialError struct {
	Committed       int
	Total           int
	AssetsCommitted int
	AssetsTotal     int
	Err             error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("applied %d of %d writes: %v", e.Committed, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// RunAtomic runs fn inside one transaction. Everything fn writes is committed
// together or not at all.
func RunAtomic(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ApplyChunked commits writes in chunks of at most size. Each chunk is atomic,
// the whole set is not: on failure earlier chunks remain applied and a
// *PartialError is returned.
func ApplyChunked(ctx context.Context, db *sql.DB, writes []Write, size int) error {
	if size <= 0 || size > MaxBatchWrites {
		size = MaxBatchWrites
	}

	committed, assets := 0, 0
	for start := 0; start < len(writes); start += size {
		end := min(start+size, len(writes))
		chunk := writes[start:end]

		err := RunAtomic(ctx, db, func(tx *sql.Tx) error {
			return ApplyWrites(ctx, tx, chunk)
		})
		if err != nil {
			return &PartialError{
				Committed:       committed,
				Total:           len(writes),
				AssetsCommitted: assets,
				AssetsTotal:     countAssetWrites(writes),
				Err:             err,
			}
		}
		committed += len(chunk)
		assets += countAssetWrites(chunk)
	}
	return nil
}

// ApplyWrites executes writes in order against q.
func ApplyWrites(ctx context.Context, q Querier, writes []Write) error {
	for i, w := range writes {
		var err error
		switch {
		case w.Insert != nil:
			err = InsertAsset(ctx, q, w.Insert)
		case w.Update != nil:
			err = UpdateAssetFields(ctx, q, w.Update.ID, w.Update.Fields)
		case w.Audit != nil:
			err = AppendAudit(ctx, q, w.Audit)
		default:
			err = fmt.Errorf("empty write")
		}
		if err != nil {
			return fmt.Errorf("write %d: %w", i, err)
		}
	}
	return nil
}

// UpdateAssetFields applies a field-level update to one asset.
func UpdateAssetFields(ctx context.Context, q Querier, id string, fields Patch) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !patchable[col] {
			return fmt.Errorf("updating asset: column %q cannot be patched", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, bindValue(fields[col]))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := q.ExecContext(ctx,
		`UPDATE assets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating asset %s: %w", id, ErrNotFound)
	}
	return nil
}

// bindValue converts domain string types to plain strings for the driver.
func bindValue(v any) any {
	switch v := v.(type) {
	case model.Status:
		return string(v)
	case model.Category:
		return string(v)
	default:
		return v
	}
}
