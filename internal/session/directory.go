// Package session holds per-login application state and the shared employee
// directory snapshot.
package session

import (
	"sync/atomic"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// Directory is an immutable snapshot of the employee directory.
type Directory struct {
	byID      map[string]*model.Employee
	FetchedAt time.Time
}

// NewDirectory indexes employees by id. Later duplicates are ignored.
func NewDirectory(employees []model.Employee, fetchedAt time.Time) *Directory {
	d := &Directory{byID: make(map[string]*model.Employee, len(employees)), FetchedAt: fetchedAt}
	for i := range employees {
		e := employees[i]
		if _, dup := d.byID[e.ID]; !dup {
			d.byID[e.ID] = &e
		}
	}
	return d
}

// Employee returns the entry with the given normalized id.
func (d *Directory) Employee(id string) (*model.Employee, bool) {
	if d == nil {
		return nil, false
	}
	e, ok := d.byID[id]
	return e, ok
}

// Len returns the number of employees.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byID)
}

// DirectoryStore holds the current directory snapshot. Replacing it is atomic
// and never merges with the previous snapshot.
type DirectoryStore struct {
	current atomic.Pointer[Directory]
}

// Load returns the current snapshot, or nil before the first sync.
func (s *DirectoryStore) Load() *Directory {
	return s.current.Load()
}

// Replace swaps in d wholesale.
func (s *DirectoryStore) Replace(d *Directory) {
	s.current.Store(d)
}

// Employee looks id up in the current snapshot.
func (s *DirectoryStore) Employee(id string) (*model.Employee, bool) {
	return s.Load().Employee(id)
}
