// Package syncer merges inventory sheet records into the asset store, matching
// existing assets by serial number.
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/sanitize"
	"github.com/erazemk/oprema/internal/session"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/stream"
)

// UnspecifiedLocation holds assets a sheet marks as in use without naming a
// holder or a location.
const UnspecifiedLocation = "Unspecified"

// Directory resolves employee ids during a sync.
type Directory interface {
	Employee(id string) (*model.Employee, bool)
}

// Result counts what a sync did.
type Result struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Employees int `json:"employees,omitempty"`
}

// Engine runs syncs.
type Engine struct {
	DB        *sql.DB
	Fetcher   *sheets.Fetcher
	Directory *session.DirectoryStore
	Events    stream.Publisher

	// BatchSize bounds each committed chunk. Zero means store.MaxBatchWrites.
	BatchSize int
}

func (e *Engine) batchSize() int {
	size := e.BatchSize
	if size <= 0 || size > store.MaxBatchWrites {
		size = store.MaxBatchWrites
	}
	if size < 2 {
		size = 2
	}
	// Each asset write is paired with its audit entry.
	return size - size%2
}

// Sync merges records into the store. Each record updates the stored asset
// with the same serial number, or creates a new asset. An active asset is
// preferred; a deleted one is only matched when no active asset carries the
// serial. Writes are committed in chunks; if a chunk fails, earlier chunks stay
// applied and the error wraps *store.PartialError. Re-running with the same
// records creates nothing new.
func (e *Engine) Sync(ctx context.Context, actor string, records []sheets.Record, dir Directory) (*Result, error) {
	existing, err := store.ListAllAssets(ctx, e.DB)
	if err != nil {
		return nil, err
	}
	bySerial := matchBySerial(existing)

	now := time.Now().UTC()
	result := &Result{}
	var writes []store.Write

	for _, rec := range records {
		serial := sanitize.String(rec.SerialNumber)
		if serial == "" {
			result.Skipped++
			continue
		}

		status, custody := resolveCustody(rec, dir, now)

		current, ok := bySerial[serial]
		if !ok {
			a := &model.Asset{
				ID:           uuid.NewString(),
				SerialNumber: serial,
				Name:         sanitize.String(rec.Name),
				Brand:        sanitize.String(rec.Brand),
				Category:     rec.Category,
				PhoneNumber:  sanitize.String(rec.PhoneNumber),
				IsRental:     rec.IsRental,
				Status:       status,
				Custody:      custody,
			}
			writes = append(writes,
				store.InsertWrite(a),
				store.AuditWrite(model.NewAuditEntry(a, model.ActionCreate, "Created by sheet sync", actor)),
			)
			clone := *a
			bySerial[serial] = &clone
			result.Created++
			continue
		}

		next := *current
		next.Name = sanitize.String(rec.Name)
		next.Brand = sanitize.String(rec.Brand)
		next.Category = rec.Category
		next.PhoneNumber = sanitize.String(rec.PhoneNumber)
		next.IsRental = rec.IsRental
		next.Status = status
		if sameHolder(current.Custody, custody) {
			custody.AssignedDate = current.AssignedDate
		}
		next.Custody = custody

		if !changed(current, &next) {
			result.Unchanged++
			continue
		}

		fields := store.Patch{
			"name":         next.Name,
			"brand":        next.Brand,
			"category":     next.Category,
			"phone_number": next.PhoneNumber,
			"is_rental":    next.IsRental,
			"status":       next.Status,
		}.Merge(store.CustodyPatch(next.Custody))
		writes = append(writes,
			store.UpdateWrite(current.ID, fields),
			store.AuditWrite(model.NewAuditEntry(&next, model.ActionEdit, "Updated by sheet sync", actor)),
		)
		*current = next
		result.Updated++
	}

	if err := store.ApplyChunked(ctx, e.DB, writes, e.batchSize()); err != nil {
		var partial *store.PartialError
		if errors.As(err, &partial) {
			slog.Error("sync stopped part way", "committed", partial.AssetsCommitted, "total", partial.AssetsTotal, "error", partial.Err)
		}
		return result, fmt.Errorf("syncing assets: %w", err)
	}

	if e.Events != nil && len(writes) > 0 {
		e.Events.Publish(stream.Event{Type: stream.EventSyncFinished, Actor: actor})
	}
	return result, nil
}

// matchBySerial indexes assets by serial number. The first active asset wins,
// then the first deleted one for serials with no active asset.
func matchBySerial(assets []model.Asset) map[string]*model.Asset {
	bySerial := make(map[string]*model.Asset, len(assets))
	for _, deleted := range []bool{false, true} {
		for i := range assets {
			a := &assets[i]
			if a.IsDeleted != deleted || a.SerialNumber == "" {
				continue
			}
			if _, ok := bySerial[a.SerialNumber]; !ok {
				bySerial[a.SerialNumber] = a
			}
		}
	}
	return bySerial
}

// resolveCustody turns a record's derived status into custody. Only assigned
// records have a holder: an employee when the record names one, a central
// location otherwise.
func resolveCustody(rec sheets.Record, dir Directory, now time.Time) (model.Status, model.Custody) {
	if rec.Status != model.StatusAssigned {
		return rec.Status, model.Custody{}
	}

	if rec.EmployeeID != "" {
		var emp *model.Employee
		var ok bool
		if dir != nil {
			emp, ok = dir.Employee(rec.EmployeeID)
		}
		name := ""
		if ok {
			if name = sanitize.String(emp.Name); name == "" {
				name = sanitize.String(emp.Nickname)
			}
		}
		// A directory row without a name counts as a miss.
		if name == "" {
			return model.StatusAssigned, model.Custody{
				AssignedTo:   fmt.Sprintf("Unknown (ID: %s)", rec.EmployeeID),
				EmployeeID:   rec.EmployeeID,
				AssignedDate: &now,
			}
		}
		return model.StatusAssigned, model.PersonCustody(
			name, emp.ID, sanitize.String(emp.Department), sanitize.String(emp.Position), now,
		)
	}

	location := sanitize.String(rec.Location)
	if location == "" {
		location = UnspecifiedLocation
	}
	return model.StatusAssigned, model.CentralCustody(location, now)
}

func sameHolder(a, b model.Custody) bool {
	return a.Kind() == b.Kind() && a.EmployeeID == b.EmployeeID && a.Location == b.Location && a.AssignedTo == b.AssignedTo
}

func changed(before, after *model.Asset) bool {
	if before.Name != after.Name || before.Brand != after.Brand || before.Category != after.Category ||
		before.PhoneNumber != after.PhoneNumber || before.IsRental != after.IsRental || before.Status != after.Status {
		return true
	}
	b, a := before.Custody, after.Custody
	if b.AssignedTo != a.AssignedTo || b.EmployeeID != a.EmployeeID || b.Department != a.Department ||
		b.Position != a.Position || b.IsCentral != a.IsCentral || b.Location != a.Location {
		return true
	}
	switch {
	case b.AssignedDate == nil && a.AssignedDate == nil:
		return false
	case b.AssignedDate == nil || a.AssignedDate == nil:
		return true
	default:
		return !b.AssignedDate.Equal(*a.AssignedDate)
	}
}
