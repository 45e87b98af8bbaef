package session

import (
	"sync"
	"time"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/query"
)

// Context is the state of one signed-in session: who is acting and what they
// are looking at.
type Context struct {
	ID        string
	Principal model.Principal
	View      *query.View
	Directory *DirectoryStore
	ExpiresAt time.Time
}

// Registry tracks live sessions by token id.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Context
	directory *DirectoryStore
	pageSize  int
}

// NewRegistry returns an empty registry whose sessions share directory.
func NewRegistry(directory *DirectoryStore, pageSize int) *Registry {
	return &Registry{
		sessions:  make(map[string]*Context),
		directory: directory,
		pageSize:  pageSize,
	}
}

// Start creates the session for token id, or returns the existing one.
func (r *Registry) Start(id string, p model.Principal, expiresAt time.Time) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.sessions[id]; ok {
		return c
	}
	c := &Context{
		ID:        id,
		Principal: p,
		View:      query.NewView(r.pageSize),
		Directory: r.directory,
		ExpiresAt: expiresAt,
	}
	r.sessions[id] = c
	return c
}

// Get returns the live session for token id.
func (r *Registry) Get(id string) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	return c, ok
}

// End tears down the session for token id.
func (r *Registry) End(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Each calls fn for every live session.
func (r *Registry) Each(fn func(*Context)) {
	r.mu.Lock()
	list := make([]*Context, 0, len(r.sessions))
	for _, c := range r.sessions {
		list = append(list, c)
	}
	r.mu.Unlock()

	for _, c := range list {
		fn(c)
	}
}

// Prune ends sessions that expired before now and returns how many.
func (r *Registry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.sessions {
		if now.After(c.ExpiresAt) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
