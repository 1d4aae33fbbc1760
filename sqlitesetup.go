// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlitesetup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds database configuration options.
type Config struct {
	// Path to database file. Use ":memory:" for a private in-memory database.
	Path string

	// AppID is stamped into application_id when the file is created and
	// must match on every later open. Default 0.
	AppID int32

	// DisableForeignKeys turns off foreign key enforcement, which is on
	// by default.
	DisableForeignKeys bool

	// Migrations to apply. Optional; nil is an empty registry.
	// The registry must not be modified while an Open is in progress.
	Migrations *Migrations

	// OnClose is called exactly once when the handle is closed. It gets the
	// still-open *sql.DB, or nil if the database was never opened or was
	// already closed out from under the handle.
	OnClose func(db *sql.DB)

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger

	// MigrationTimeout bounds migration execution time. Zero means no limit.
	MigrationTimeout time.Duration

	// RequiredSchemaVersion, if non-zero, causes Open to verify that the
	// schema version exactly matches this value after migrations are applied.
	RequiredSchemaVersion int

	// ProductionEnvVar is the environment variable checked to determine
	// production mode. If the variable equals "production" (case-insensitive),
	// in-memory databases are rejected unless AllowMemoryInProduction is true.
	// Default: "ENV".
	ProductionEnvVar string

	// AllowMemoryInProduction permits :memory: databases when the production
	// environment variable is set. Default: false.
	AllowMemoryInProduction bool

	// journalMode, if set, is applied after the file has passed the
	// identity and version checks.
	journalMode string
}

// defaults returns a copy of cfg with default values applied.
func (cfg Config) defaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ProductionEnvVar == "" {
		cfg.ProductionEnvVar = "ENV"
	}
	return cfg
}

// isProduction returns true if the production environment variable is set.
func (cfg Config) isProduction() bool {
	return strings.EqualFold(os.Getenv(cfg.ProductionEnvVar), "production")
}

// isMemory returns true if Path indicates an in-memory database.
func (cfg Config) isMemory() bool {
	return isMemoryPath(cfg.Path)
}

// pragmas prepends the foreign key setting to base.
func (cfg Config) pragmas(base []pragma) []pragma {
	return append([]pragma{foreignKeysPragma(!cfg.DisableForeignKeys)}, base...)
}

// closed runs the OnClose hook for a database that never opened.
func (cfg Config) closed() {
	if cfg.OnClose != nil {
		cfg.OnClose(nil)
	}
}

func isMemoryPath(path string) bool {
	return path == ":memory:"
}

// DB is an open, verified and migrated database.
type DB struct {
	*sql.DB

	id      string
	path    string
	onClose func(*sql.DB)

	closeOnce sync.Once
	closeErr  error
}

// ID returns the identifier used for this handle in log output.
func (db *DB) ID() string {
	return db.id
}

// Path returns the path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

// Close runs the OnClose hook and closes the database.
// Calling Close more than once is safe; only the first call does any work.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		if db.onClose != nil {
			if err := db.DB.PingContext(context.Background()); isClosed(err) {
				db.onClose(nil)
			} else {
				db.onClose(db.DB)
			}
		}
		db.closeErr = db.DB.Close()
	})
	return db.closeErr
}

// MigrationStatus describes the current schema state of a database file.
type MigrationStatus struct {
	IsInitialized   bool // the file exists
	AppID           int32
	SchemaVersion   int
	LatestMigration int
	Pending         []int
}

// OutOfDate reports whether the file is newer than the registry.
func (s *MigrationStatus) OutOfDate() bool {
	return s.SchemaVersion > s.LatestMigration
}

// Open opens the database at cfg.Path, creating it if it does not exist,
// then verifies its application id and applies pending migrations.
//
// A file counts as new only when Open had to create it. An existing empty
// file is verified like any other.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	cfg = cfg.defaults()
	id := uuid.NewString()
	cfg.Logger = cfg.Logger.With("conn", id)

	if cfg.isMemory() {
		return openMemory(ctx, id, cfg)
	}
	return openFile(ctx, id, cfg)
}

// Create creates a new database file and applies migrations.
// Returns an error if the file already exists.
func Create(ctx context.Context, cfg Config) error {
	cfg = cfg.defaults()

	if cfg.isMemory() {
		return fmt.Errorf("Create requires a persistent path, not :memory:")
	}

	if err := validatePath(cfg.Path); err != nil {
		return err
	}

	if fileExists(cfg.Path) {
		return fmt.Errorf("%s: file already exists", cfg.Path)
	}

	cfg.Logger.Info("creating database", "path", cfg.Path)

	db, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	return db.Close()
}

// Delete removes a database file and its WAL sidecar files.
// Returns nil if the file does not exist.
func Delete(ctx context.Context, path string) error {
	if isMemoryPath(path) {
		return fmt.Errorf("cannot delete in-memory database")
	}

	if err := validatePath(path); err != nil {
		return err
	}

	if !fileExists(path) {
		return nil
	}

	// WAL mode creates sidecar files
	var firstErr error
	for _, suffix := range []string{"", "-shm", "-wal"} {
		name := path + suffix
		if !fileExists(name) {
			continue
		}
		if !isRegularFile(name) {
			err := fmt.Errorf("%s: not a regular file", name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.Remove(name); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		return fmt.Errorf("delete %s: %w", path, firstErr)
	}

	if fileExists(path) {
		return fmt.Errorf("%s: still exists after delete", path)
	}

	return nil
}

// Status returns the identity and schema state of the file at cfg.Path
// without modifying it. The application id is reported, not checked.
func Status(ctx context.Context, cfg Config) (*MigrationStatus, error) {
	cfg = cfg.defaults()

	if cfg.isMemory() {
		return nil, fmt.Errorf("cannot check status of in-memory database")
	}

	if err := validatePath(cfg.Path); err != nil {
		return nil, err
	}

	status := &MigrationStatus{LatestMigration: cfg.Migrations.Latest()}

	if !fileExists(cfg.Path) {
		status.Pending = versions(cfg.Migrations.pending(0))
		return status, nil
	}

	db, err := connect(ctx, buildDSN(cfg.Path, modeReadOnly, statusPragmas))
	if err != nil {
		return nil, engineErr("open "+cfg.Path, err)
	}
	defer db.Close()

	appID, err := getPragma(ctx, db, "application_id")
	if err != nil {
		return nil, engineErr("read application_id", err)
	}
	version, err := getPragma(ctx, db, "user_version")
	if err != nil {
		return nil, engineErr("read user_version", err)
	}

	status.IsInitialized = true
	status.AppID = int32(appID)
	status.SchemaVersion = version
	status.Pending = versions(cfg.Migrations.pending(version))
	return status, nil
}

func versions(list []Migration) []int {
	var v []int
	for _, m := range list {
		v = append(v, m.Version)
	}
	return v
}

// openMemory opens a private in-memory database. It is always new.
func openMemory(ctx context.Context, id string, cfg Config) (*DB, error) {
	if cfg.isProduction() && !cfg.AllowMemoryInProduction {
		cfg.closed()
		return nil, fmt.Errorf("in-memory database not allowed in production (%s=production)", cfg.ProductionEnvVar)
	}

	cfg.Logger.Info("DB mode: in-memory")

	// A unique shared-cache name keeps the database alive across pool
	// reconnects without colliding with other in-memory opens.
	db, err := connect(ctx, buildDSN("sqlitesetup-"+id, modeMemory, cfg.pragmas(memoryPragmas)))
	if err != nil {
		cfg.closed()
		return nil, engineErr("open in-memory database", err)
	}
	return finishOpen(ctx, id, cfg, db, true)
}

// openFile opens an existing database file, falling back to creating it
// only when the engine reports that it cannot be opened.
func openFile(ctx context.Context, id string, cfg Config) (*DB, error) {
	if err := validatePath(cfg.Path); err != nil {
		cfg.closed()
		return nil, err
	}

	cfg.Logger.Info("DB mode: persistent", "path", cfg.Path)

	pragmas := cfg.pragmas(persistentPragmas)
	cfg.journalMode = "WAL"
	isNew := false

	db, err := connect(ctx, buildDSN(cfg.Path, modeReadWrite, pragmas))
	if err != nil && isCantOpen(err) {
		cfg.Logger.Info("creating database", "path", cfg.Path)
		isNew = true
		db, err = connect(ctx, buildDSN(cfg.Path, modeCreate, pragmas))
	}
	if err != nil {
		cfg.closed()
		return nil, engineErr("open "+cfg.Path, err)
	}

	return finishOpen(ctx, id, cfg, db, isNew)
}

// finishOpen wraps db and runs setup, closing the handle on failure.
func finishOpen(ctx context.Context, id string, cfg Config, sqldb *sql.DB, isNew bool) (*DB, error) {
	db := &DB{
		DB:      sqldb,
		id:      id,
		path:    cfg.Path,
		onClose: cfg.OnClose,
	}

	if err := setup(ctx, sqldb, isNew, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// connect opens a pool limited to one connection and forces the driver to
// open the file so that open errors surface here.
func connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// SQLite works best with limited connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// URI open modes.
const (
	modeReadOnly  = "ro"
	modeReadWrite = "rw"
	modeCreate    = "rwc"
	modeMemory    = "memory"
)

// uriPath escapes the characters that would end the path part of a
// file: URI.
func uriPath(path string) string {
	return strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(path))
}

// validatePath checks that a path is usable for a database file.
func validatePath(path string) error {
	if path == "" {
		return errors.New("database path is empty")
	}
	if isDirectory(path) {
		return fmt.Errorf("%s: path is a directory", path)
	}
	dir := filepath.Dir(path)
	if !isDirectory(dir) {
		return fmt.Errorf("%s: parent directory does not exist", dir)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
