package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/oprema/internal/api"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/session"
	"github.com/erazemk/oprema/internal/sheets"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/stream"
	"github.com/erazemk/oprema/internal/syncer"
)

// housekeepingInterval is how often expired sessions and revocations are
// dropped.
const housekeepingInterval = time.Hour

func newServeCmd(a *app) *cobra.Command {
	var addr, admin string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Listen = addr
			}
			if cmd.Flags().Changed("admin") {
				a.cfg.Auth.AdminEmail = admin
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()
			return serve(cmd.Context(), a.cfg, database)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	cmd.Flags().StringVarP(&admin, "admin", "u", "", "admin email created on first run (overrides config)")
	return cmd
}

// newEngine wires the sync engine shared by serve and sync.
func newEngine(cfg *config.Config, database *sql.DB, directory *session.DirectoryStore, events stream.Publisher) *syncer.Engine {
	return &syncer.Engine{
		DB:        database,
		Fetcher:   sheets.NewFetcher(cfg.FetchTimeout()),
		Directory: directory,
		Events:    events,
		BatchSize: cfg.Sync.BatchSize,
	}
}

func serve(ctx context.Context, cfg *config.Config, database *sql.DB) error {
	if err := bootstrapAdmin(ctx, database, cfg); err != nil {
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	hub := stream.NewHub()
	defer hub.Close()

	directory := &session.DirectoryStore{}
	assets := lifecycle.NewService(database, directory, hub)
	assets.BatchSize = cfg.Sync.BatchSize
	engine := newEngine(cfg, database, directory, hub)
	sessions := session.NewRegistry(directory, cfg.PageSize)

	go loadDirectory(ctx, engine)
	go housekeeping(ctx, database, sessions)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(api.Deps{
		DB:        database,
		JWTSecret: jwtSecret,
		Config:    cfg,
		Assets:    assets,
		Sync:      engine,
		Sessions:  sessions,
		Hub:       hub,
		Pusher:    export.NewPusher(cfg.PushTimeout()),
	}))

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown when the command context is cancelled.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Listen, "domain", cfg.Auth.AllowedDomain)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// loadDirectory fills the employee directory at startup. Assignments by
// employee code fail with not found until it succeeds or an admin syncs.
func loadDirectory(ctx context.Context, engine *syncer.Engine) {
	src, err := syncer.LoadSources(ctx, engine)
	if err != nil || src.Employees == "" {
		return
	}
	if _, err := engine.SyncDirectory(ctx); err != nil {
		slog.Warn("initial directory load failed", "error", err)
	}
}

func housekeeping(ctx context.Context, database *sql.DB, sessions *session.Registry) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ended := sessions.Prune(now)
			pruned, err := store.PruneRevokedTokens(ctx, database, now)
			if err != nil {
				slog.Error("failed to prune revoked tokens", "error", err)
			}
			if ended > 0 || pruned > 0 {
				slog.Info("housekeeping", "sessions_ended", ended, "revocations_pruned", pruned)
			}
		}
	}
}

// bootstrapAdmin creates the first admin account when none exists and prints
// its generated password.
func bootstrapAdmin(ctx context.Context, database *sql.DB, cfg *config.Config) error {
	n, err := store.CountAdmins(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	email := model.NormalizeEmail(cfg.Auth.AdminEmail)
	if email == "" {
		return fmt.Errorf("no admin account exists; set auth.admin_email or pass --admin")
	}
	if err := auth.CheckDomain(email, cfg.Auth.AllowedDomain); err != nil {
		return fmt.Errorf("admin email: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.CreateUser(ctx, database, email, hash, model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
	return nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
