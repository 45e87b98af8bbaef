// Package query derives filtered, paginated views over the active asset set.
package query

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/erazemk/oprema/internal/model"
)

// All is the filter value that disables a criterion. An empty value means the
// same.
const All = "all"

// DefaultPageSize is the number of assets per page when none is configured.
const DefaultPageSize = 20

// Criteria selects assets. Search matches name, serial number, holder,
// employee id and location; every other field is an exact match.
type Criteria struct {
	Search     string `json:"search"`
	Category   string `json:"category"`
	Brand      string `json:"brand"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Rental     string `json:"rental"`
	Status     string `json:"status"`
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}

// folder normalizes text for case-insensitive matching. A Caser is stateful,
// so each call builds its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}

// Filter returns the active assets that match c, preserving order.
func Filter(assets []model.Asset, c Criteria) []model.Asset {
	f := newFolder()
	search := f.fold(strings.TrimSpace(c.Search))

	rental, rentalErr := strconv.ParseBool(c.Rental)
	filterRental := !isAll(c.Rental) && rentalErr == nil

	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		if a.IsDeleted {
			continue
		}
		if !isAll(c.Category) && string(a.Category) != c.Category {
			continue
		}
		if !isAll(c.Brand) && a.Brand != c.Brand {
			continue
		}
		if !isAll(c.Department) && a.Department != c.Department {
			continue
		}
		if !isAll(c.Position) && a.Position != c.Position {
			continue
		}
		if !isAll(c.Status) && string(a.Status) != c.Status {
			continue
		}
		if filterRental && a.IsRental != rental {
			continue
		}
		if search != "" && !f.matches(&a, search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (f *folder) matches(a *model.Asset, search string) bool {
	for _, field := range []string{a.Name, a.SerialNumber, a.AssignedTo, a.EmployeeID, a.Location} {
		if field != "" && strings.Contains(f.fold(field), search) {
			return true
		}
	}
	return false
}

// Page is one slice of a filtered result.
type Page struct {
	Assets []model.Asset `json:"assets"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
	Size   int           `json:"size"`
	Total  int           `json:"total"`
}

// Paginate returns page (1-based) of assets. The page is clamped into range;
// an empty input yields page 1 of 1.
func Paginate(assets []model.Asset, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := max(1, (len(assets)+size-1)/size)
	page = min(max(page, 1), pages)

	start := (page - 1) * size
	end := min(start+size, len(assets))
	return Page{
		Assets: assets[start:end],
		Page:   page,
		Pages:  pages,
		Size:   size,
		Total:  len(assets),
	}
}
