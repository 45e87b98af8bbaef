package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/session"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
)

const actor = "admin@example.co.th"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return &Engine{
		DB:        db.NewTestDB(t),
		Fetcher:   sheets.NewFetcher(5 * time.Second),
		Directory: &session.DirectoryStore{},
	}
}

var testDirectory = session.NewDirectory([]model.Employee{
	{ID: "000007", Name: "Somchai Jaidee", Department: "IT", Position: "Engineer", Status: "Active"},
}, time.Now())

const laptopSheet = "Brand,Model,Serial,Employee,Location,Purchased,Warranty,Status\n" +
	"Lenovo,ThinkPad T14,PF1ABC,7,,2023-01-01,3y,Active\n" +
	"Dell,Latitude 5440,DL999,,Server Room,2023-01-01,3y,\n" +
	"Apple,MacBook Air,C02XYZ,,,2022-06-01,1y,Active - Stock\n" +
	"HP,EliteBook,HP123,000001,HQ,2021-01-01,3y,Lost\n" +
	"Acer,Swift,,,,2021-01-01,3y,Active\n" +
	"Asus,ZenBook,AS777,424242,,2021-01-01,3y,\n" +
	"Acme,Loaner,LN1,,,2021-01-01,3y,Active\n"

func byName(t *testing.T, assets []model.Asset) map[string]model.Asset {
	t.Helper()
	out := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		out[a.Name] = a
	}
	return out
}

func TestSyncCreatesAssetsWithCustody(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Sync(ctx, actor, sheets.ParseLaptops(laptopSheet), testDirectory)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Created)
	assert.Equal(t, 1, res.Skipped)

	assets, err := store.ListAllAssets(ctx, e.DB)
	require.NoError(t, err)
	require.Len(t, assets, 6)
	got := byName(t, assets)

	for _, a := range assets {
		assert.NoError(t, a.ValidateCustody(), a.Name)
	}

	assert.Equal(t, "Somchai Jaidee", got["ThinkPad T14"].AssignedTo)
	assert.Equal(t, "IT", got["ThinkPad T14"].Department)
	assert.Equal(t, "Central - Server Room", got["Latitude 5440"].AssignedTo)
	assert.Equal(t, model.StatusAvailable, got["MacBook Air"].Status)
	assert.Equal(t, model.StatusLost, got["EliteBook"].Status)
	assert.Equal(t, model.CustodyNone, got["EliteBook"].Custody.Kind())
	assert.Equal(t, "Unknown (ID: 424242)", got["ZenBook"].AssignedTo)
	assert.Equal(t, "Central - "+UnspecifiedLocation, got["Loaner"].AssignedTo)

	history, err := store.ListAuditByAsset(ctx, e.DB, got["ThinkPad T14"].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ActionCreate, history[0].Action)
}

func TestSyncIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.BatchSize = 4
	ctx := context.Background()
	records := sheets.ParseLaptops(laptopSheet)

	_, err := e.Sync(ctx, actor, records, testDirectory)
	require.NoError(t, err)
	first, err := store.ListAllAssets(ctx, e.DB)
	require.NoError(t, err)

	res, err := e.Sync(ctx, actor, records, testDirectory)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 6, res.Unchanged)

	second, err := store.ListAllAssets(ctx, e.DB)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Status, second[i].Status)
		assert.Equal(t, first[i].AssignedTo, second[i].AssignedTo)
	}
}

func TestSyncUpdatesBySerial(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Sync(ctx, actor, sheets.ParseLaptops(laptopSheet), testDirectory)
	require.NoError(t, err)

	changed := "Brand,Model,Serial,Employee,Location,Purchased,Warranty,Status\n" +
		"Lenovo,ThinkPad T14 Gen 2,PF1ABC,,,2023-01-01,3y,Broken\n" +
		"Lenovo,ThinkPad T14 copy,PF1ABC,,,2023-01-01,3y,\n"
	res, err := e.Sync(ctx, actor, sheets.ParseLaptops(changed), testDirectory)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Updated)

	assets, err := store.ListAllAssets(ctx, e.DB)
	require.NoError(t, err)
	assert.Len(t, assets, 6)

	var a model.Asset
	for _, x := range assets {
		if x.SerialNumber == "PF1ABC" {
			a = x
		}
	}
	// Both rows hit the same asset; the last one wins.
	assert.Equal(t, "ThinkPad T14 copy", a.Name)
	assert.Equal(t, model.StatusAvailable, a.Status)
	assert.Equal(t, model.CustodyNone, a.CustodyKind())
}

func TestSyncMatchesDeletedAssets(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	old := &model.Asset{Name: "Retired", SerialNumber: "PF1ABC", Category: model.CategoryLaptop}
	require.NoError(t, store.InsertAsset(ctx, e.DB, old))
	require.NoError(t, store.UpdateAssetFields(ctx, e.DB, old.ID, store.Patch{"is_deleted": true}))

	res, err := e.Sync(ctx, actor, sheets.ParseLaptops(laptopSheet), testDirectory)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created)
	assert.Equal(t, 1, res.Updated)

	got, err := store.GetAsset(ctx, e.DB, old.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, "ThinkPad T14", got.Name)
}

func TestSyncPrefersActiveAssetOverDeleted(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	old := &model.Asset{Name: "Old", SerialNumber: "PF1ABC", Category: model.CategoryLaptop}
	require.NoError(t, store.InsertAsset(ctx, e.DB, old))
	require.NoError(t, store.UpdateAssetFields(ctx, e.DB, old.ID, store.Patch{"is_deleted": true}))
	readded := &model.Asset{Name: "Re-added", SerialNumber: "PF1ABC", Category: model.CategoryLaptop}
	require.NoError(t, store.InsertAsset(ctx, e.DB, readded))

	res, err := e.Sync(ctx, actor, sheets.ParseLaptops(laptopSheet), testDirectory)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created)
	assert.Equal(t, 1, res.Updated)

	live, err := store.GetAsset(ctx, e.DB, readded.ID)
	require.NoError(t, err)
	assert.False(t, live.IsDeleted)
	assert.Equal(t, "ThinkPad T14", live.Name)
	assert.Equal(t, model.StatusAssigned, live.Status)
	assert.Equal(t, "Somchai Jaidee", live.AssignedTo)

	gone, err := store.GetAsset(ctx, e.DB, old.ID)
	require.NoError(t, err)
	assert.True(t, gone.IsDeleted)
	assert.Equal(t, "Old", gone.Name)
	assert.Equal(t, model.CustodyNone, gone.CustodyKind())
}

func TestSyncDirectoryEntryWithoutName(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	dir := session.NewDirectory(sheets.ParseEmployees(
		"Code,Name,Nickname,Department,Position\n"+
			"55,,,IT,Dev\n"+
			"56,,Nok,IT,Dev\n",
	), time.Now())
	records := sheets.ParseLaptops("Brand,Model,Serial,Employee\n" +
		"Lenovo,X1,SN55,55\n" +
		"Lenovo,X1,SN56,56\n")

	_, err := e.Sync(ctx, actor, records, dir)
	require.NoError(t, err)

	assets, err := store.ListActiveAssets(ctx, e.DB)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	bySerial := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		assert.NoError(t, a.ValidateCustody(), a.SerialNumber)
		bySerial[a.SerialNumber] = a
	}

	assert.Equal(t, model.StatusAssigned, bySerial["SN55"].Status)
	assert.Equal(t, "Unknown (ID: 000055)", bySerial["SN55"].AssignedTo)
	assert.Equal(t, "Nok", bySerial["SN56"].AssignedTo)
	assert.Equal(t, "IT", bySerial["SN56"].Department)
}

func TestSyncSources(t *testing.T) {
	employees := "Code,Name,Nickname,Department,Position,Email,Status\n" +
		"42,Suda Mali,Da,HR,Manager,suda@example.co.th,\n"
	laptops := "Brand,Model,Serial,Employee\nLenovo,X1,SN1,42\n"
	mobiles := "Brand,Model,IMEI,Phone,Employee,Location,Status\nSamsung,A54,IMEI1,0812345678,,Front Desk,\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/employees":
			w.Write([]byte(employees))
		case "/laptops":
			w.Write([]byte(laptops))
		case "/mobiles":
			w.Write([]byte(mobiles))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	e := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, store.SetSetting(ctx, e.DB, store.SettingEmployeesURL, server.URL+"/employees"))
	require.NoError(t, store.SetSetting(ctx, e.DB, store.SettingLaptopsURL, server.URL+"/laptops"))
	require.NoError(t, store.SetSetting(ctx, e.DB, store.SettingMobilesURL, server.URL+"/mobiles"))

	res, err := e.SyncSources(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Employees)

	emp, ok := e.Directory.Employee("000042")
	require.True(t, ok)
	assert.Equal(t, "Suda Mali", emp.Name)

	assets, err := store.ListActiveAssets(ctx, e.DB)
	require.NoError(t, err)
	got := byName(t, assets)
	assert.Equal(t, "Suda Mali", got["X1"].AssignedTo)
	assert.Equal(t, "0812345678", got["A54"].PhoneNumber)
	assert.True(t, got["A54"].IsCentral)
}

func TestSyncSourcesFetchFailureWritesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/laptops" {
			w.Write([]byte("Brand,Model,Serial,Employee\nLenovo,X1,SN1,\n"))
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(server.Close)

	e := newTestEngine(t)
	ctx := context.Background()
	e.Directory.Replace(testDirectory)
	require.NoError(t, store.SetSetting(ctx, e.DB, store.SettingEmployeesURL, server.URL+"/employees"))
	require.NoError(t, store.SetSetting(ctx, e.DB, store.SettingLaptopsURL, server.URL+"/laptops"))

	_, err := e.SyncSources(ctx, actor)
	assert.ErrorIs(t, err, sheets.ErrFetch)

	assets, err := store.ListAllAssets(ctx, e.DB)
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.Same(t, testDirectory, e.Directory.Load(), "directory must survive a failed fetch")

	_, err = newTestEngine(t).SyncSources(ctx, actor)
	assert.ErrorIs(t, err, sheets.ErrFetch)
}
