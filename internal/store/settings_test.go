package store

import (
	"context"
	"testing"

	"github.com/erazemk/oprema/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, SettingLaptopsURL)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := SetSetting(ctx, database, SettingLaptopsURL, "https://a.example/laptops.csv"); err != nil {
		t.Fatal(err)
	}
	if err := SetSetting(ctx, database, SettingLaptopsURL, "https://b.example/laptops.csv"); err != nil {
		t.Fatal(err)
	}

	all, err := ListSettings(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(SettingKeys) {
		t.Errorf("expected %d keys, got %d", len(SettingKeys), len(all))
	}
	if all[SettingLaptopsURL] != "https://b.example/laptops.csv" {
		t.Errorf("unexpected laptops url %q", all[SettingLaptopsURL])
	}
	if _, ok := all["jwt_secret"]; ok {
		t.Error("jwt secret must not be listed")
	}

	if !IsSettingKey(SettingExportURL) || IsSettingKey("jwt_secret") {
		t.Error("IsSettingKey mismatch")
	}
}
