package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestUpdateAssetFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := &model.Asset{Name: "Laptop", Category: model.CategoryLaptop}
	require.NoError(t, InsertAsset(ctx, database, a))

	fields := Patch{"status": model.StatusAssigned}.Merge(CustodyPatch(model.PersonCustody("Suda", "000012", "HR", "Manager", time.Now())))
	require.NoError(t, UpdateAssetFields(ctx, database, a.ID, fields))

	got, err := GetAsset(ctx, database, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.Equal(t, "Suda", got.AssignedTo)
	assert.Equal(t, "HR", got.Department)
	assert.NoError(t, got.ValidateCustody())

	// Clearing custody writes NULLs back.
	fields = Patch{"status": model.StatusAvailable}.Merge(CustodyPatch(model.Custody{}))
	require.NoError(t, UpdateAssetFields(ctx, database, a.ID, fields))

	got, err = GetAsset(ctx, database, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.EmployeeID)
	assert.Nil(t, got.AssignedDate)
	assert.NoError(t, got.ValidateCustody())
}

func TestUpdateAssetFieldsRejectsUnknownColumn(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := &model.Asset{Name: "Laptop"}
	require.NoError(t, InsertAsset(ctx, database, a))

	err := UpdateAssetFields(ctx, database, a.ID, Patch{"id": "other"})
	assert.Error(t, err)

	err = UpdateAssetFields(ctx, database, "missing", Patch{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunAtomicRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := RunAtomic(ctx, database, func(tx *sql.Tx) error {
		if err := InsertAsset(ctx, tx, &model.Asset{Name: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assets, err := ListAllAssets(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestApplyChunked(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	var writes []Write
	for i := 0; i < 7; i++ {
		a := &model.Asset{Name: "bulk"}
		writes = append(writes, InsertWrite(a))
		writes = append(writes, AuditWrite(&model.AuditLogEntry{AssetID: "x", Action: model.ActionCreate, PerformedBy: "sync"}))
	}

	require.NoError(t, ApplyChunked(ctx, database, writes, 4))

	assets, err := ListAllAssets(ctx, database)
	require.NoError(t, err)
	assert.Len(t, assets, 7)

	entries, err := ListAudit(ctx, database, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestApplyChunkedPartialFailure(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	writes := []Write{
		InsertWrite(&model.Asset{Name: "a"}),
		InsertWrite(&model.Asset{Name: "b"}),
		InsertWrite(&model.Asset{Name: "c"}),
		UpdateWrite("missing", Patch{"name": "x"}),
		InsertWrite(&model.Asset{Name: "e"}),
	}

	err := ApplyChunked(ctx, database, writes, 2)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.Committed)
	assert.Equal(t, 5, partial.Total)
	assert.Equal(t, 2, partial.AssetsCommitted)
	assert.Equal(t, 5, partial.AssetsTotal)
	assert.ErrorIs(t, err, ErrNotFound)

	// The first chunk stays, the failing chunk is rolled back, the rest never runs.
	assets, err := ListAllAssets(ctx, database)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "a", assets[0].Name)
	assert.Equal(t, "b", assets[1].Name)
}

func TestApplyChunkedPartialFailureCountsAssets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := &model.Asset{Name: "a"}
	b := &model.Asset{Name: "b"}
	require.NoError(t, InsertAsset(ctx, database, a))
	require.NoError(t, InsertAsset(ctx, database, b))

	writes := []Write{
		UpdateWrite(a.ID, Patch{"name": "a2"}),
		AuditWrite(model.NewAuditEntry(a, model.ActionBulkEdit, "name", "admin@example.co.th")),
		UpdateWrite("missing", Patch{"name": "x"}),
		AuditWrite(model.NewAuditEntry(b, model.ActionBulkEdit, "name", "admin@example.co.th")),
		UpdateWrite(b.ID, Patch{"name": "b2"}),
		AuditWrite(model.NewAuditEntry(b, model.ActionBulkEdit, "name", "admin@example.co.th")),
	}

	err := ApplyChunked(ctx, database, writes, 2)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.Committed)
	assert.Equal(t, 6, partial.Total)
	assert.Equal(t, 1, partial.AssetsCommitted)
	assert.Equal(t, 3, partial.AssetsTotal)
}
