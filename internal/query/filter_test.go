package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/model"
)

func fixture() []model.Asset {
	return []model.Asset{
		{ID: "1", Name: "ThinkPad T14", SerialNumber: "PF1ABC", Brand: "Lenovo", Category: model.CategoryLaptop, Status: model.StatusAssigned,
			Custody: model.Custody{AssignedTo: "Somchai Jaidee", EmployeeID: "000007", Department: "IT", Position: "Engineer"}},
		{ID: "2", Name: "Galaxy A54", SerialNumber: "3569990001", Brand: "Samsung", Category: model.CategoryMobile, Status: model.StatusAvailable, IsRental: true},
		{ID: "3", Name: "iPhone 13", SerialNumber: "3569990002", Brand: "Apple", Category: model.CategoryMobile, Status: model.StatusAssigned,
			Custody: model.Custody{AssignedTo: "Central - Front Desk", IsCentral: true, Location: "Front Desk"}},
		{ID: "4", Name: "Old Dell", SerialNumber: "DL1", Brand: "Dell", Category: model.CategoryLaptop, Status: model.StatusBroken, IsDeleted: true},
		{ID: "5", Name: "ÉCRAN 27", SerialNumber: "MON-27", Brand: "Dell", Category: model.CategoryMonitor, Status: model.StatusAvailable},
	}
}

func ids(assets []model.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	assets := fixture()

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no criteria drops deleted", Criteria{}, []string{"1", "2", "3", "5"}},
		{"all sentinel", Criteria{Category: "all", Brand: "ALL"}, []string{"1", "2", "3", "5"}},
		{"category", Criteria{Category: "mobile"}, []string{"2", "3"}},
		{"brand", Criteria{Brand: "Dell"}, []string{"5"}},
		{"department", Criteria{Department: "IT"}, []string{"1"}},
		{"position", Criteria{Position: "Engineer"}, []string{"1"}},
		{"rental", Criteria{Rental: "true"}, []string{"2"}},
		{"not rental", Criteria{Rental: "false"}, []string{"1", "3", "5"}},
		{"status", Criteria{Status: "assigned"}, []string{"1", "3"}},
		{"search name", Criteria{Search: "thinkpad"}, []string{"1"}},
		{"search serial", Criteria{Search: "35699900"}, []string{"2", "3"}},
		{"search holder", Criteria{Search: "SOMCHAI"}, []string{"1"}},
		{"search employee id", Criteria{Search: "000007"}, []string{"1"}},
		{"search location", Criteria{Search: "front desk"}, []string{"3"}},
		{"search folds unicode", Criteria{Search: "écran"}, []string{"5"}},
		{"combined", Criteria{Category: "mobile", Search: "iphone"}, []string{"3"}},
		{"nothing", Criteria{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(assets, tt.c)))
		})
	}
}

func TestPaginate(t *testing.T) {
	var assets []model.Asset
	for i := range 45 {
		assets = append(assets, model.Asset{ID: fmt.Sprint(i)})
	}

	p := Paginate(assets, 1, 20)
	assert.Equal(t, 3, p.Pages)
	assert.Len(t, p.Assets, 20)
	assert.Equal(t, "0", p.Assets[0].ID)

	p = Paginate(assets, 3, 20)
	assert.Len(t, p.Assets, 5)
	assert.Equal(t, "40", p.Assets[0].ID)

	p = Paginate(assets, 99, 20)
	assert.Equal(t, 3, p.Page)

	p = Paginate(assets, -2, 20)
	assert.Equal(t, 1, p.Page)

	p = Paginate(nil, 4, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.Pages)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Empty(t, p.Assets)
}

func TestViewFilterThenClearResetsPage(t *testing.T) {
	var assets []model.Asset
	for i := range 50 {
		cat := model.CategoryLaptop
		if i%2 == 0 {
			cat = model.CategoryMobile
		}
		assets = append(assets, model.Asset{ID: fmt.Sprint(i), Name: "asset", Category: cat, IsDeleted: i == 49})
	}

	v := NewView(10)
	v.Replace(assets)
	v.SetPage(3)
	require.Equal(t, 3, v.Snapshot().Page.Page)

	v.SetCriteria(Criteria{Category: "mobile"})
	s := v.Snapshot()
	assert.Equal(t, 1, s.Page.Page)
	assert.Equal(t, 25, s.Total)

	v.SetPage(2)
	v.Select([]string{"20", "22"})
	require.Len(t, v.Selection(), 2)

	v.ClearCriteria()
	s = v.Snapshot()
	assert.Equal(t, 1, s.Page.Page)
	assert.Equal(t, 49, s.Total)
	assert.Empty(t, s.Selected)
}

func TestViewSelectionStaysVisible(t *testing.T) {
	v := NewView(20)
	v.Replace(fixture())
	v.SetCriteria(Criteria{Category: "mobile"})

	// Invisible and deleted ids are refused.
	got := v.Select([]string{"3", "1", "4", "2"})
	assert.Equal(t, []string{"2", "3"}, got)

	// A replaced set that hides a selected asset drops it.
	next := fixture()
	next[2].IsDeleted = true
	v.Replace(next)
	assert.Equal(t, []string{"2"}, v.Selection())
}

func TestViewReplaceClampsPage(t *testing.T) {
	var assets []model.Asset
	for i := range 30 {
		assets = append(assets, model.Asset{ID: fmt.Sprint(i)})
	}
	v := NewView(10)
	v.Replace(assets)
	v.SetPage(3)

	v.Replace(assets[:12])
	assert.Equal(t, 2, v.Snapshot().Page.Page)

	v.Replace(nil)
	s := v.Snapshot()
	assert.Equal(t, 1, s.Page.Page)
	assert.Empty(t, s.Assets)
}

func TestViewOptions(t *testing.T) {
	v := NewView(20)
	v.Replace(fixture())
	o := v.Snapshot().Options
	assert.Equal(t, []string{"Apple", "Dell", "Lenovo", "Samsung"}, o.Brands)
	assert.Equal(t, []string{"IT"}, o.Departments)
}
