// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"

	"github.com/mdhender/sqlitesetup"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the application id and schema version without changing the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSetup(cmd)
		if err != nil {
			return err
		}

		status, err := sqlitesetup.Status(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}

		w := cmd.OutOrStdout()
		if !status.IsInitialized {
			fmt.Fprintf(w, "%s: not initialized\n", cfg.Path)
		} else {
			fmt.Fprintf(w, "%s\n", cfg.Path)
			fmt.Fprintf(w, "  app id:           %d", status.AppID)
			if status.AppID != cfg.AppID {
				fmt.Fprintf(w, " (configured %d)", cfg.AppID)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  schema version:   %d\n", status.SchemaVersion)
		}
		fmt.Fprintf(w, "  latest migration: %d\n", status.LatestMigration)
		fmt.Fprintf(w, "  pending:          %v\n", status.Pending)
		if status.OutOfDate() {
			fmt.Fprintln(w, "  database is newer than the available migrations")
		}
		return nil
	},
}
