package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/stream"
)

// Get returns an active asset.
func (s *Service) Get(ctx context.Context, id string) (*model.Asset, error) {
	a, err := store.GetAsset(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.IsDeleted {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// ListActive returns every asset that is not soft-deleted.
func (s *Service) ListActive(ctx context.Context) ([]model.Asset, error) {
	return store.ListActiveAssets(ctx, s.DB)
}

// History returns the audit entries of one asset, newest first. Deleted
// assets keep their history.
func (s *Service) History(ctx context.Context, id string) ([]model.AuditLogEntry, error) {
	return store.ListAuditByAsset(ctx, s.DB, id)
}

// AuditLog returns the most recent audit entries across all assets.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	return store.ListAudit(ctx, s.DB, limit)
}

// DeleteAudit removes one audit entry.
func (s *Service) DeleteAudit(ctx context.Context, p *model.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := store.DeleteAuditEntry(ctx, s.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("audit entry %s: %w", id, ErrNotFound)
		}
		return err
	}
	s.publishAudit(p.Email)
	return nil
}

// PurgeAudit removes audit entries older than before.
func (s *Service) PurgeAudit(ctx context.Context, p *model.Principal, before time.Time) (int64, error) {
	if err := requireAdmin(p); err != nil {
		return 0, err
	}
	if before.IsZero() {
		return 0, fmt.Errorf("%w: a cut-off time is required", ErrInvalid)
	}
	n, err := store.PurgeAuditBefore(ctx, s.DB, before)
	if err != nil {
		return 0, err
	}
	s.publishAudit(p.Email)
	return n, nil
}

func (s *Service) publishAudit(actor string) {
	if s.Events != nil {
		s.Events.Publish(stream.Event{Type: stream.EventAuditChanged, Actor: actor})
	}
}

// ResolveEmployee looks up an employee code in the directory. resigned is
// set when the directory marks the employee as having left; callers ask for
// confirmation before using such an entry.
func (s *Service) ResolveEmployee(code string) (e *model.Employee, resigned bool, err error) {
	id := sheets.NormalizeEmployeeID(code)
	if id == "" {
		return nil, false, fmt.Errorf("%w: employee code is required", ErrInvalid)
	}
	if s.Employees == nil {
		return nil, false, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	e, ok := s.Employees.Employee(id)
	if !ok {
		return nil, false, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return e, e.Resigned(), nil
}
