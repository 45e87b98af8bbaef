package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/oprema/internal/session"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
)

// Sources are the sheet export URLs a full sync reads.
type Sources struct {
	Employees string
	Laptops   string
	Mobiles   string
}

// LoadSources reads the configured sheet URLs from settings.
func LoadSources(ctx context.Context, e *Engine) (Sources, error) {
	settings, err := store.ListSettings(ctx, e.DB)
	if err != nil {
		return Sources{}, err
	}
	return Sources{
		Employees: settings[store.SettingEmployeesURL],
		Laptops:   settings[store.SettingLaptopsURL],
		Mobiles:   settings[store.SettingMobilesURL],
	}, nil
}

// SyncDirectory fetches the employee sheet and replaces the directory
// snapshot. On failure the previous snapshot stays in place.
func (e *Engine) SyncDirectory(ctx context.Context) (*session.Directory, error) {
	src, err := LoadSources(ctx, e)
	if err != nil {
		return nil, err
	}
	body, err := e.Fetcher.Fetch(ctx, src.Employees)
	if err != nil {
		return nil, fmt.Errorf("fetching employee directory: %w", err)
	}
	dir := session.NewDirectory(sheets.ParseEmployees(body), time.Now().UTC())
	e.Directory.Replace(dir)
	slog.Info("employee directory replaced", "employees", dir.Len())
	return dir, nil
}

// SyncSources fetches every configured sheet, replaces the directory when an
// employee sheet is configured, and merges the laptop and mobile records.
// All fetches finish before anything is written, so a failed fetch changes
// nothing.
func (e *Engine) SyncSources(ctx context.Context, actor string) (*Result, error) {
	src, err := LoadSources(ctx, e)
	if err != nil {
		return nil, err
	}
	if src.Laptops == "" && src.Mobiles == "" {
		return nil, fmt.Errorf("%w: no inventory sheet configured", sheets.ErrFetch)
	}

	var employeesBody, laptopsBody, mobilesBody string
	if src.Employees != "" {
		if employeesBody, err = e.Fetcher.Fetch(ctx, src.Employees); err != nil {
			return nil, fmt.Errorf("fetching employee directory: %w", err)
		}
	}
	if src.Laptops != "" {
		if laptopsBody, err = e.Fetcher.Fetch(ctx, src.Laptops); err != nil {
			return nil, fmt.Errorf("fetching laptops: %w", err)
		}
	}
	if src.Mobiles != "" {
		if mobilesBody, err = e.Fetcher.Fetch(ctx, src.Mobiles); err != nil {
			return nil, fmt.Errorf("fetching mobiles: %w", err)
		}
	}

	if src.Employees != "" {
		e.Directory.Replace(session.NewDirectory(sheets.ParseEmployees(employeesBody), time.Now().UTC()))
	}
	dir := e.Directory.Load()

	records := append(sheets.ParseLaptops(laptopsBody), sheets.ParseMobiles(mobilesBody)...)
	result, err := e.Sync(ctx, actor, records, dir)
	if result != nil {
		result.Employees = dir.Len()
	}
	if err != nil {
		return result, err
	}

	slog.Info("sheet sync finished", "created", result.Created, "updated", result.Updated,
		"unchanged", result.Unchanged, "skipped", result.Skipped, "employees", result.Employees)
	return result, nil
}
