// Package lifecycle implements the asset state machine. Every operation pairs
// an asset mutation with its audit entry and is gated on an admin principal.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/sanitize"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/stream"
)

var (
	ErrForbidden            = errors.New("admin role required")
	ErrConflict             = errors.New("already taken or an error occurred")
	ErrNotFound             = errors.New("not found")
	ErrInvalid              = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("confirmation required")
)

// BulkDeleteReason is recorded on assets removed by BulkDelete.
const BulkDeleteReason = "[Bulk Delete]"

// EmployeeSource looks up employees in the current directory snapshot.
type EmployeeSource interface {
	Employee(id string) (*model.Employee, bool)
}

// Service runs lifecycle operations against the asset store.
type Service struct {
	DB        *sql.DB
	Employees EmployeeSource
	Events    stream.Publisher

	// BatchSize bounds each chunk of a bulk operation. Zero means
	// store.MaxBatchWrites.
	BatchSize int
}

// NewService returns a Service. employees and events may be nil.
func NewService(db *sql.DB, employees EmployeeSource, events stream.Publisher) *Service {
	return &Service{DB: db, Employees: employees, Events: events}
}

func requireAdmin(p *model.Principal) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) publish(actor string, ids ...string) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(stream.Event{Type: stream.EventAssetsChanged, AssetIDs: ids, Actor: actor})
}

// batchSize keeps chunks even so an asset update and its audit entry always
// land in the same chunk.
func (s *Service) batchSize() int {
	size := s.BatchSize
	if size <= 0 || size > store.MaxBatchWrites {
		size = store.MaxBatchWrites
	}
	if size < 2 {
		size = 2
	}
	return size - size%2
}

// AssetInput is the editable part of an asset.
type AssetInput struct {
	Name         string
	SerialNumber string
	Brand        string
	Category     model.Category
	Notes        string
	PhoneNumber  string
	IsRental     bool
	Status       model.Status
}

func (in AssetInput) clean() (AssetInput, error) {
	in.Name = sanitize.String(in.Name)
	in.SerialNumber = sanitize.String(in.SerialNumber)
	in.Brand = sanitize.String(in.Brand)
	in.Notes = sanitize.String(in.Notes)
	in.PhoneNumber = sanitize.String(in.PhoneNumber)

	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !in.Category.Valid() {
		return in, fmt.Errorf("%w: unknown category %q", ErrInvalid, in.Category)
	}
	if in.Status != "" && !in.Status.Valid() {
		return in, fmt.Errorf("%w: unknown status %q", ErrInvalid, in.Status)
	}
	return in, nil
}

// Create stores a new available asset.
func (s *Service) Create(ctx context.Context, p *model.Principal, in AssetInput) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := in.clean()
	if err != nil {
		return nil, err
	}

	a := &model.Asset{
		SerialNumber: in.SerialNumber,
		Name:         in.Name,
		Brand:        in.Brand,
		Category:     in.Category,
		Notes:        in.Notes,
		PhoneNumber:  in.PhoneNumber,
		IsRental:     in.IsRental,
		Status:       model.StatusAvailable,
	}

	err = store.RunAtomic(ctx, s.DB, func(tx *sql.Tx) error {
		if err := store.InsertAsset(ctx, tx, a); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, model.NewAuditEntry(a, model.ActionCreate, "Created "+a.Name, p.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	s.publish(p.Email, a.ID)
	return a, nil
}

// Target is who an asset is handed to: an employee or a central location.
type Target struct {
	Employee *model.Employee
	Location string
}

// custody validates the target and returns the custody it produces along
// with a description for the audit log.
func (t Target) custody(at time.Time) (model.Custody, string, error) {
	if t.Employee != nil {
		e := t.Employee
		name := sanitize.String(e.Name)
		if name == "" || e.ID == "" {
			return model.Custody{}, "", fmt.Errorf("%w: employee needs an id and a name", ErrInvalid)
		}
		c := model.PersonCustody(name, e.ID, sanitize.String(e.Department), sanitize.String(e.Position), at)
		return c, fmt.Sprintf("%s (ID: %s)", e.DisplayName(), e.ID), nil
	}

	location := sanitize.String(t.Location)
	if location == "" {
		return model.Custody{}, "", fmt.Errorf("%w: an employee or a location is required", ErrInvalid)
	}
	c := model.CentralCustody(location, at)
	return c, c.AssignedTo, nil
}

// AssignToPerson hands an asset to an employee.
func (s *Service) AssignToPerson(ctx context.Context, p *model.Principal, id string, e model.Employee) (*model.Asset, error) {
	return s.Assign(ctx, p, id, Target{Employee: &e})
}

// AssignToCentral places an asset in a central location pool.
func (s *Service) AssignToCentral(ctx context.Context, p *model.Principal, id, location string) (*model.Asset, error) {
	return s.Assign(ctx, p, id, Target{Location: location})
}

// AssignEmployee resolves code in the directory and assigns the asset to that
// employee. Resigned employees need confirmResigned.
func (s *Service) AssignEmployee(ctx context.Context, p *model.Principal, id, code string, confirmResigned bool) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	e, resigned, err := s.ResolveEmployee(code)
	if err != nil {
		return nil, err
	}
	if resigned && !confirmResigned {
		return nil, fmt.Errorf("%w: employee %s is marked %q", ErrConfirmationRequired, e.ID, e.Status)
	}
	return s.AssignToPerson(ctx, p, id, *e)
}

// Assign sets the custody of an available asset. The current row is read
// inside the write transaction, so of two racing assigns exactly one wins and
// the other gets ErrConflict.
func (s *Service) Assign(ctx context.Context, p *model.Principal, id string, t Target) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	custody, holder, err := t.custody(now)
	if err != nil {
		return nil, err
	}

	var a *model.Asset
	err = store.RunAtomic(ctx, s.DB, func(tx *sql.Tx) error {
		a, err = store.GetAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if a == nil || a.IsDeleted {
			return fmt.Errorf("%w: asset %s does not exist", ErrConflict, id)
		}
		if a.Status == model.StatusAssigned {
			return fmt.Errorf("%w: asset %s is held by %s", ErrConflict, id, a.AssignedTo)
		}

		a.Status = model.StatusAssigned
		a.Custody = custody
		fields := store.Patch{"status": a.Status}.Merge(store.CustodyPatch(custody))
		if err := store.UpdateAssetFields(ctx, tx, id, fields); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, model.NewAuditEntry(a, model.ActionAssign, "Assigned to "+holder, p.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("assigning asset: %w", err)
	}

	s.publish(p.Email, id)
	return a, nil
}

// Return takes an asset back from its holder. condition decides the new
// status and note is appended to the asset's notes.
func (s *Service) Return(ctx context.Context, p *model.Principal, id, condition, note string) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	status, err := StatusForCondition(condition)
	if err != nil {
		return nil, err
	}
	condition = strings.TrimSpace(condition)
	if condition == "" {
		condition = ConditionNormal
	}
	note = sanitize.String(note)
	now := time.Now().UTC()

	var a *model.Asset
	err = store.RunAtomic(ctx, s.DB, func(tx *sql.Tx) error {
		a, err = store.GetAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if a == nil || a.IsDeleted {
			return fmt.Errorf("%w: asset %s does not exist", ErrConflict, id)
		}

		prior := a.AssignedTo
		if prior == "" {
			prior = "-"
		}
		line := fmt.Sprintf("[%s] Returned (%s)", now.Format(time.DateOnly), condition)
		if note != "" {
			line += ": " + note
		}

		a.Status = status
		a.Custody = model.Custody{}
		a.Notes = appendNote(a.Notes, line)

		fields := store.Patch{"status": a.Status, "notes": a.Notes}.Merge(store.CustodyPatch(a.Custody))
		if err := store.UpdateAssetFields(ctx, tx, id, fields); err != nil {
			return err
		}
		details := fmt.Sprintf("Returned from %s as %s", prior, status.Label())
		if note != "" {
			details += ": " + note
		}
		return store.AppendAudit(ctx, tx, model.NewAuditEntry(a, model.ActionReturn, details, p.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("returning asset: %w", err)
	}

	s.publish(p.Email, id)
	return a, nil
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

// ChangeOwner returns an asset in normal condition and assigns it to t. The
// two steps are separate transactions: if the assign fails the asset stays
// returned.
func (s *Service) ChangeOwner(ctx context.Context, p *model.Principal, id string, t Target) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if _, _, err := t.custody(time.Now()); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	note := "Change owner"
	if current.AssignedTo != "" {
		note = "Change owner from " + current.AssignedTo
	}

	if _, err := s.Return(ctx, p, id, ConditionNormal, note); err != nil {
		return nil, err
	}
	a, err := s.Assign(ctx, p, id, t)
	if err != nil {
		return nil, fmt.Errorf("asset %s was returned but not reassigned: %w", id, err)
	}
	return a, nil
}

// Edit overwrites the editable fields of an asset. A missing status means
// available. Leaving the assigned status clears custody; keeping it requires
// the asset to already have a holder.
func (s *Service) Edit(ctx context.Context, p *model.Principal, id string, in AssetInput) (*model.Asset, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	in, err := in.clean()
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.StatusAvailable
	}

	var a *model.Asset
	err = store.RunAtomic(ctx, s.DB, func(tx *sql.Tx) error {
		a, err = store.GetAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if a == nil || a.IsDeleted {
			return fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		before := *a

		a.Name = in.Name
		a.SerialNumber = in.SerialNumber
		a.Brand = in.Brand
		a.Category = in.Category
		a.Notes = in.Notes
		a.PhoneNumber = in.PhoneNumber
		a.IsRental = in.IsRental
		a.Status = in.Status
		if a.Status != model.StatusAssigned {
			a.Custody = model.Custody{}
		} else if a.CustodyKind() == model.CustodyNone {
			return fmt.Errorf("%w: assign the asset to set it assigned", ErrInvalid)
		}

		if err := store.SaveAsset(ctx, tx, a); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, model.NewAuditEntry(a, model.ActionEdit, describeChanges(&before, a), p.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("editing asset: %w", err)
	}

	s.publish(p.Email, id)
	return a, nil
}

func describeChanges(before, after *model.Asset) string {
	var changes []string
	diff := func(field, from, to string) {
		if from != to {
			changes = append(changes, fmt.Sprintf("%s: %q -> %q", field, from, to))
		}
	}
	diff("name", before.Name, after.Name)
	diff("serial", before.SerialNumber, after.SerialNumber)
	diff("brand", before.Brand, after.Brand)
	diff("category", string(before.Category), string(after.Category))
	diff("notes", before.Notes, after.Notes)
	diff("phone", before.PhoneNumber, after.PhoneNumber)
	diff("rental", fmt.Sprint(before.IsRental), fmt.Sprint(after.IsRental))
	diff("status", string(before.Status), string(after.Status))
	diff("assigned to", before.AssignedTo, after.AssignedTo)
	if len(changes) == 0 {
		return "No changes"
	}
	return strings.Join(changes, "; ")
}

// Delete soft-deletes an asset. Its audit history stays readable.
func (s *Service) Delete(ctx context.Context, p *model.Principal, id, reason string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	reason = sanitize.String(reason)
	now := time.Now().UTC()

	err := store.RunAtomic(ctx, s.DB, func(tx *sql.Tx) error {
		a, err := store.GetAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if a == nil || a.IsDeleted {
			return fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		if err := store.UpdateAssetFields(ctx, tx, id, deletePatch(now, p.Email, reason)); err != nil {
			return err
		}
		return store.AppendAudit(ctx, tx, model.NewAuditEntry(a, model.ActionDelete, deleteDetails(reason), p.Email))
	})
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}

	s.publish(p.Email, id)
	return nil
}

func deletePatch(at time.Time, by, reason string) store.Patch {
	return store.Patch{
		"is_deleted":    true,
		"deleted_at":    at,
		"deleted_by":    by,
		"delete_reason": reason,
	}
}

func deleteDetails(reason string) string {
	if reason == "" {
		return "Deleted"
	}
	return "Deleted: " + reason
}
