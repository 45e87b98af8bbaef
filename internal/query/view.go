package query

import (
	"slices"
	"sync"

	"github.com/erazemk/oprema/internal/model"
)

// View is one user's filtered, paginated window onto the asset set together
// with their bulk selection. The selection only ever holds ids visible under
// the current criteria.
type View struct {
	mu       sync.Mutex
	assets   []model.Asset
	filtered []model.Asset
	criteria Criteria
	page     int
	size     int
	selected map[string]bool
}

// NewView returns an empty view showing size assets per page.
func NewView(size int) *View {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &View{page: 1, size: size, selected: make(map[string]bool)}
}

// Snapshot is the rendered state of a View.
type Snapshot struct {
	Criteria Criteria `json:"criteria"`
	Page
	Selected []string `json:"selected"`
	Options  Options  `json:"options"`
}

// Options are the distinct values available to the exact-match filters.
type Options struct {
	Brands      []string `json:"brands"`
	Departments []string `json:"departments"`
	Positions   []string `json:"positions"`
}

// Replace swaps in a new asset set. Derived state is recomputed: the page is
// clamped and selected ids that are no longer visible are dropped.
func (v *View) Replace(assets []model.Asset) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.assets = assets
	v.refresh()
}

// SetCriteria changes the filter. Any change resets to page 1 and clears the
// selection.
func (v *View) SetCriteria(c Criteria) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c == v.criteria {
		return
	}
	v.criteria = c
	v.page = 1
	clear(v.selected)
	v.refresh()
}

// ClearCriteria removes every filter.
func (v *View) ClearCriteria() {
	v.SetCriteria(Criteria{})
}

// SetPage moves to page n, clamped into range.
func (v *View) SetPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = n
	v.refresh()
}

// Select replaces the selection with the given ids. Ids not visible under the
// current criteria are ignored. The accepted ids are returned in view order.
func (v *View) Select(ids []string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.selected)
	visible := v.visibleIDs()
	for _, id := range ids {
		if visible[id] {
			v.selected[id] = true
		}
	}
	return v.selection()
}

// Selection returns the selected ids in view order.
func (v *View) Selection() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection()
}

// Snapshot renders the current page.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Criteria: v.criteria,
		Page:     Paginate(v.filtered, v.page, v.size),
		Selected: v.selection(),
		Options:  options(v.assets),
	}
}

// Filtered returns every asset matching the current criteria.
func (v *View) Filtered() []model.Asset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.filtered)
}

func (v *View) refresh() {
	v.filtered = Filter(v.assets, v.criteria)
	v.page = Paginate(v.filtered, v.page, v.size).Page

	visible := v.visibleIDs()
	for id := range v.selected {
		if !visible[id] {
			delete(v.selected, id)
		}
	}
}

func (v *View) visibleIDs() map[string]bool {
	ids := make(map[string]bool, len(v.filtered))
	for _, a := range v.filtered {
		ids[a.ID] = true
	}
	return ids
}

func (v *View) selection() []string {
	out := make([]string, 0, len(v.selected))
	for _, a := range v.filtered {
		if v.selected[a.ID] {
			out = append(out, a.ID)
		}
	}
	return out
}

func options(assets []model.Asset) Options {
	var o Options
	brands := map[string]bool{}
	departments := map[string]bool{}
	positions := map[string]bool{}
	for _, a := range assets {
		if a.IsDeleted {
			continue
		}
		add(&o.Brands, brands, a.Brand)
		add(&o.Departments, departments, a.Department)
		add(&o.Positions, positions, a.Position)
	}
	slices.Sort(o.Brands)
	slices.Sort(o.Departments)
	slices.Sort(o.Positions)
	return o
}

func add(list *[]string, seen map[string]bool, v string) {
	if v == "" || seen[v] {
		return
	}
	seen[v] = true
	*list = append(*list, v)
}
