package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/oprema/internal/lifecycle"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/session"
)

// cliActor is recorded as the performer of changes made from the command
// line.
const cliActor = "cli"

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the configured sheets once and merge them into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			engine := newEngine(a.cfg, database, &session.DirectoryStore{}, nil)
			result, err := engine.SyncSources(cmd.Context(), cliActor)
			if result != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.Encode(result)
			}
			return err
		},
	}
}

func newPurgeAuditCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-audit",
		Short: "Delete audit entries older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			svc := lifecycle.NewService(database, nil, nil)
			operator := &model.Principal{Email: cliActor, Role: model.RoleAdmin}
			n, err := svc.PurgeAudit(cmd.Context(), operator, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d audit entries.\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "minimum age of removed entries")
	return cmd
}
