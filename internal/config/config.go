// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package config loads the sqlitesetup command configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mdhender/sqlitesetup"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "sqlitesetup"
	configFileType = "yaml"
	envPrefix      = "SQLITESETUP"
)

// Config keys.
const (
	KeyPath             = "path"
	KeyAppID            = "app_id"
	KeyForeignKeys      = "foreign_keys"
	KeyMigrations       = "migrations"
	KeyMigrationTimeout = "migration_timeout"
	KeyLogLevel         = "log_level"
)

// Config is the command configuration.
// Loaded from config file (viper) with env and flag overrides.
type Config struct {
	Path             string        `mapstructure:"path"`
	AppID            int32         `mapstructure:"app_id"`
	ForeignKeys      bool          `mapstructure:"foreign_keys"`
	Migrations       string        `mapstructure:"migrations"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
	LogLevel         string        `mapstructure:"log_level"`
}

// Load reads configFile, or sqlitesetup.yaml from the working directory
// when configFile is empty. A missing default config file is not an error.
// Environment variables (SQLITESETUP_APP_ID, ...) override the file and
// flags that were set on the command line override both.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyPath, ":memory:")
	v.SetDefault(KeyAppID, 0)
	v.SetDefault(KeyForeignKeys, true)
	v.SetDefault(KeyMigrationTimeout, "0s")
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyPath, KeyAppID, KeyForeignKeys, KeyMigrations, KeyMigrationTimeout, KeyLogLevel} {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Setup converts c into the library configuration, loading migrations from
// the Migrations directory when one is configured.
func (c *Config) Setup(logger *slog.Logger) (sqlitesetup.Config, error) {
	cfg := sqlitesetup.Config{
		Path:               c.Path,
		AppID:              c.AppID,
		DisableForeignKeys: !c.ForeignKeys,
		MigrationTimeout:   c.MigrationTimeout,
		Logger:             logger,
	}

	if c.Migrations != "" {
		m, err := sqlitesetup.LoadMigrations(os.DirFS(c.Migrations), logger)
		if err != nil {
			return cfg, fmt.Errorf("load migrations from %s: %w", c.Migrations, err)
		}
		cfg.Migrations = m
	}

	return cfg, nil
}
