// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mdhender/sqlitesetup"
	"github.com/mdhender/sqlitesetup/internal/config"
	"github.com/spf13/cobra"
)

// configFile is set by the --config flag.
var configFile string

var rootCmd = &cobra.Command{
	Use:           "sqlitesetup",
	Short:         "Open, migrate and inspect application SQLite databases",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./sqlitesetup.yaml)")
	flags.String("path", ":memory:", "database path, or :memory:")
	flags.Int32("app-id", 0, "application id stamped into the database")
	flags.Bool("foreign-keys", true, "enforce foreign keys")
	flags.String("migrations", "", "directory of NNNN_comment.sql migrations")
	flags.Duration("migration-timeout", 0, "bound on migration time (0 for none)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSetup loads the command configuration and converts it for the library.
func loadSetup(cmd *cobra.Command) (sqlitesetup.Config, error) {
	c, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return sqlitesetup.Config{}, fmt.Errorf("load config: %w", err)
	}

	level, err := c.Level()
	if err != nil {
		return sqlitesetup.Config{}, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return c.Setup(logger)
}
