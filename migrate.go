// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlitesetup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// Setup brings an already-open database into line with cfg: it stamps or
// verifies the application id, sets foreign key enforcement and applies
// any pending migrations. isNew must be true only when the underlying
// storage was just created.
//
// Setup pins a single connection from db for the whole pass. Callers must
// serialize Setup calls against the same file.
//
// foreign_keys is a per-connection setting and Setup only sets it on the
// connection it pins. If db is a pool that may open other connections,
// set foreign_keys in the DSN as well, or those connections keep the
// driver default. Setup leaves the journal mode alone.
func Setup(ctx context.Context, db *sql.DB, isNew bool, cfg Config) error {
	cfg = cfg.defaults()
	return setup(ctx, db, isNew, cfg)
}

// setup runs the setup pass on a pinned connection.
func setup(ctx context.Context, db *sql.DB, isNew bool, cfg Config) error {
	if db == nil {
		return ErrAlreadyClosed
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return engineErr("acquire connection", err)
	}
	defer conn.Close()

	if err := checkIdentity(ctx, conn, isNew, cfg); err != nil {
		return err
	}

	// foreign_keys is a no-op inside a transaction
	if err := setPragma(ctx, conn, "foreign_keys", boolPragma(!cfg.DisableForeignKeys)); err != nil {
		return engineErr("set foreign_keys", err)
	}

	current, err := getPragma(ctx, conn, "user_version")
	if err != nil {
		return engineErr("read user_version", err)
	}

	latest := cfg.Migrations.Latest()
	if current > latest {
		return &OutOfDateError{DBVersion: current, LatestMigration: latest}
	}

	// journal_mode is written to the file header, so it waits until the
	// file is known to be ours
	if cfg.journalMode != "" {
		if err := setJournalMode(ctx, conn, cfg.journalMode); err != nil {
			return engineErr("set journal_mode", err)
		}
	}

	if pending := cfg.Migrations.pending(current); len(pending) == 0 {
		cfg.Logger.Debug("schema up to date", "version", current)
	} else {
		migCtx := ctx
		if cfg.MigrationTimeout > 0 {
			var cancel context.CancelFunc
			migCtx, cancel = context.WithTimeout(ctx, cfg.MigrationTimeout)
			defer cancel()
		}
		if err := applyMigrations(migCtx, conn, pending, cfg.Logger); err != nil {
			return err
		}
	}

	if cfg.RequiredSchemaVersion != 0 {
		version, err := getPragma(ctx, conn, "user_version")
		if err != nil {
			return engineErr("read user_version", err)
		}
		if version != cfg.RequiredSchemaVersion {
			return &SchemaVersionError{Required: cfg.RequiredSchemaVersion, Found: version}
		}
	}

	return nil
}

// checkIdentity stamps the application id on a new database and verifies
// it on an existing one.
func checkIdentity(ctx context.Context, conn *sql.Conn, isNew bool, cfg Config) error {
	if isNew {
		if err := setPragma(ctx, conn, "application_id", int(cfg.AppID)); err != nil {
			return engineErr("set application_id", err)
		}
		cfg.Logger.Debug("stamped application id", "app_id", cfg.AppID)
		return nil
	}

	found, err := getPragma(ctx, conn, "application_id")
	if err != nil {
		return engineErr("read application_id", err)
	}
	if int32(found) != cfg.AppID {
		return &IdentityMismatchError{Found: int32(found), Want: cfg.AppID}
	}
	return nil
}

// applyMigrations runs pending in order. Consecutive transactional
// migrations share one transaction; a non-transactional migration commits
// the open batch first and then runs on the bare connection.
// user_version only ever records fully applied migrations.
func applyMigrations(ctx context.Context, conn *sql.Conn, pending []Migration, logger *slog.Logger) error {
	var tx *sql.Tx
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	// first and last versions run inside the open transaction
	var first, last int

	commit := func() error {
		if err := setPragma(ctx, tx, "user_version", last); err != nil {
			return engineErr("set user_version", err)
		}
		if err := tx.Commit(); err != nil {
			return engineErr("commit migrations", err)
		}
		tx = nil
		logger.Info("migrations applied", "from", first, "to", last)
		return nil
	}

	for _, mg := range pending {
		if mg.Transactional {
			if tx == nil {
				var err error
				if tx, err = conn.BeginTx(ctx, nil); err != nil {
					return engineErr("begin transaction", err)
				}
				first = mg.Version
			}
			logger.Debug("applying migration", "version", mg.Version)
			if err := mg.tx(ctx, tx); err != nil {
				logger.Error("migration failed", "version", mg.Version, "error", err)
				return &MigrationError{Version: mg.Version, Err: err}
			}
			last = mg.Version
			continue
		}

		if tx != nil {
			if err := commit(); err != nil {
				return err
			}
		}

		logger.Debug("applying non-transactional migration", "version", mg.Version)
		if err := mg.raw(ctx, conn); err != nil {
			logger.Error("non-transactional migration failed", "version", mg.Version, "error", err)
			return &MigrationError{Version: mg.Version, Err: err}
		}
		if err := setPragma(ctx, conn, "user_version", mg.Version); err != nil {
			return engineErr("set user_version", err)
		}
		logger.Info("migration applied", "version", mg.Version, "transactional", false)
	}

	if tx != nil {
		return commit()
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// setPragma writes an integer pragma. Pragmas do not take bind parameters.
func setPragma(ctx context.Context, db execer, name string, value int) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %d", name, value))
	return err
}

// getPragma reads an integer pragma.
func getPragma(ctx context.Context, db rowQueryer, name string) (int, error) {
	var value int64
	if err := db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return 0, err
	}
	return int(value), nil
}

// setJournalMode switches the journal mode. The pragma answers with the
// mode actually in effect, which may differ from the one asked for.
func setJournalMode(ctx context.Context, db rowQueryer, mode string) error {
	var got string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode = "+mode).Scan(&got); err != nil {
		return err
	}
	if !strings.EqualFold(got, mode) {
		return fmt.Errorf("journal_mode is %s, want %s", got, mode)
	}
	return nil
}

func boolPragma(b bool) int {
	if b {
		return 1
	}
	return 0
}
