// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"

	"github.com/mdhender/sqlitesetup"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the database file and its WAL sidecar files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSetup(cmd)
		if err != nil {
			return err
		}

		if err := sqlitesetup.Delete(cmd.Context(), cfg.Path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted\n", cfg.Path)
		return nil
	},
}
