package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/sanitize"
	"github.com/erazemk/oprema/internal/store"
)

// BulkResult reports what a bulk operation touched.
type BulkResult struct {
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// BulkFields lists the columns BulkEdit may set.
var BulkFields = []string{"brand", "category", "notes", "phone_number", "is_rental"}

// BulkEdit sets one field to the same value on every listed asset.
func (s *Service) BulkEdit(ctx context.Context, p *model.Principal, ids []string, field, value string) (*BulkResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var v any
	switch field {
	case "brand", "notes", "phone_number":
		v = sanitize.String(value)
	case "category":
		c := model.Category(value)
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalid, value)
		}
		v = c
	case "is_rental":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: is_rental must be true or false", ErrInvalid)
		}
		v = b
	default:
		return nil, fmt.Errorf("%w: field %q cannot be bulk edited", ErrInvalid, field)
	}

	details := fmt.Sprintf("Bulk set %s to %v", field, v)
	return s.bulk(ctx, p, ids, model.ActionBulkEdit, func(a *model.Asset) (store.Patch, string) {
		return store.Patch{field: v}, details
	})
}

// BulkStatusChange sets the status of every listed asset and clears custody.
// Assigning needs a holder, so the assigned status is rejected.
func (s *Service) BulkStatusChange(ctx context.Context, p *model.Principal, ids []string, status model.Status) (*BulkResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	if status == model.StatusAssigned {
		return nil, fmt.Errorf("%w: assets must be assigned individually", ErrInvalid)
	}

	return s.bulk(ctx, p, ids, model.ActionBulkStatusChange, func(a *model.Asset) (store.Patch, string) {
		fields := store.Patch{"status": status}.Merge(store.CustodyPatch(model.Custody{}))
		return fields, fmt.Sprintf("Status changed from %s to %s", a.Status.Label(), status.Label())
	})
}

// BulkDelete soft-deletes every listed asset.
func (s *Service) BulkDelete(ctx context.Context, p *model.Principal, ids []string) (*BulkResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.bulk(ctx, p, ids, model.ActionDelete, func(a *model.Asset) (store.Patch, string) {
		return deletePatch(now, p.Email, BulkDeleteReason), deleteDetails(BulkDeleteReason)
	})
}

// bulk queues an update and an audit entry per asset and applies them in
// chunks. Missing and deleted ids are skipped. On a failed chunk, earlier
// chunks stay applied and the returned error wraps *store.PartialError.
func (s *Service) bulk(ctx context.Context, p *model.Principal, ids []string, action model.Action,
	build func(a *model.Asset) (store.Patch, string)) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no assets selected", ErrInvalid)
	}

	assets, err := store.ListAllAssets(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Asset, len(assets))
	for i := range assets {
		byID[assets[i].ID] = &assets[i]
	}

	result := &BulkResult{}
	seen := make(map[string]bool, len(ids))
	var writes []store.Write
	var touched []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		a, ok := byID[id]
		if !ok || a.IsDeleted {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		fields, details := build(a)
		writes = append(writes,
			store.UpdateWrite(id, fields),
			store.AuditWrite(model.NewAuditEntry(a, action, details, p.Email)),
		)
		touched = append(touched, id)
	}

	err = store.ApplyChunked(ctx, s.DB, writes, s.batchSize())
	if err != nil {
		var partial *store.PartialError
		if errors.As(err, &partial) {
			result.Updated = partial.AssetsCommitted
			s.publish(p.Email, touched[:result.Updated]...)
		}
		slog.Warn("bulk operation stopped", "action", action, "updated", result.Updated, "total", len(touched), "error", err)
		return result, fmt.Errorf("bulk %s: %w", action, err)
	}

	result.Updated = len(touched)
	if len(touched) > 0 {
		s.publish(p.Email, touched...)
	}
	return result, nil
}
