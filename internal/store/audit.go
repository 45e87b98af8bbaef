package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
)

const auditColumns = `id, asset_id, asset_name, serial_number, action, details, performed_by, timestamp`

func scanAudit(s rowScanner) (*model.AuditLogEntry, error) {
	e := &model.AuditLogEntry{}
	err := s.Scan(&e.ID, &e.AssetID, &e.AssetName, &e.SerialNumber, &e.Action, &e.Details, &e.PerformedBy, &e.Timestamp)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AppendAudit stores an audit entry. ID and Timestamp are assigned here when
// unset.
func AppendAudit(ctx context.Context, q Querier, e *model.AuditLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO audit_log (id, asset_id, asset_name, serial_number, action, details, performed_by, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AssetID, e.AssetName, e.SerialNumber, string(e.Action), e.Details, e.PerformedBy, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// ListAuditByAsset returns the history of one asset, newest first.
func ListAuditByAsset(ctx context.Context, db *sql.DB, assetID string) ([]model.AuditLogEntry, error) {
	return listAudit(ctx, db,
		`SELECT `+auditColumns+` FROM audit_log WHERE asset_id = ? ORDER BY timestamp DESC, rowid DESC`,
		assetID,
	)
}

// ListAudit returns the most recent audit entries across all assets, newest
// first. A limit of zero or less returns everything.
func ListAudit(ctx context.Context, db *sql.DB, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return listAudit(ctx, db,
		`SELECT `+auditColumns+` FROM audit_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

func listAudit(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.AuditLogEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditLogEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteAuditEntry removes a single audit entry.
func DeleteAuditEntry(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM audit_log WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting audit entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting audit entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeAuditBefore removes every audit entry older than cutoff and returns
// how many were removed.
func PurgeAuditBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM audit_log WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging audit log: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging audit log: %w", err)
	}
	return n, nil
}
