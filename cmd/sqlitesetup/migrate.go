// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"

	"github.com/mdhender/sqlitesetup"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Open the database, creating it if needed, and apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSetup(cmd)
		if err != nil {
			return err
		}

		db, err := sqlitesetup.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer db.Close()

		var version int
		if err := db.QueryRowContext(cmd.Context(), `PRAGMA user_version`).Scan(&version); err != nil {
			return fmt.Errorf("migrate: read user_version: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (app id %d)\n", cfg.Path, version, cfg.AppID)
		return nil
	},
}
