// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlitesetup

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
)

// TxFunc is a transactional migration. It runs inside the transaction
// shared by every pending transactional migration of the same pass and
// must not commit or roll back tx itself.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// ConnFunc is a non-transactional migration. It receives the raw connection
// and owns its own transaction boundaries. Anything it commits before
// failing stays on disk, so it must be safe to run again.
//
// The connection pool is pinned to this conn during setup; use conn, never
// the parent *sql.DB, or the migration will block.
type ConnFunc func(ctx context.Context, conn *sql.Conn) error

// Migration is a single registered schema change.
type Migration struct {
	Version       int
	Transactional bool

	tx  TxFunc
	raw ConnFunc
}

// Migrations is an ordered set of migrations keyed by version.
// A nil *Migrations is an empty registry.
//
// Migrations that have been applied to a deployed database must never be
// changed or removed; the registry only ever grows.
type Migrations struct {
	list []Migration // sorted by Version, no duplicates
}

// NewMigrations returns an empty registry.
func NewMigrations() *Migrations {
	return &Migrations{}
}

// Add registers a transactional migration that brings the database up to
// version. It panics if version is not in 1..MaxInt32 or already registered.
func (m *Migrations) Add(version int, fn TxFunc) *Migrations {
	if fn == nil {
		panic(fmt.Sprintf("sqlitesetup: migration %d: nil func", version))
	}
	return m.insert(Migration{Version: version, Transactional: true, tx: fn})
}

// AddNonTx registers a non-transactional migration. It panics under the
// same conditions as Add.
func (m *Migrations) AddNonTx(version int, fn ConnFunc) *Migrations {
	if fn == nil {
		panic(fmt.Sprintf("sqlitesetup: migration %d: nil func", version))
	}
	return m.insert(Migration{Version: version, raw: fn})
}

func (m *Migrations) insert(mg Migration) *Migrations {
	if mg.Version <= 0 {
		panic(fmt.Sprintf("sqlitesetup: migration version must be greater than 0, got %d", mg.Version))
	}
	if mg.Version > math.MaxInt32 {
		panic(fmt.Sprintf("sqlitesetup: migration version %d does not fit user_version", mg.Version))
	}
	if m == nil {
		m = &Migrations{}
	}
	i, found := slices.BinarySearchFunc(m.list, mg.Version, byVersion)
	if found {
		panic(fmt.Sprintf("sqlitesetup: duplicate migration version %d", mg.Version))
	}
	m.list = slices.Insert(m.list, i, mg)
	return m
}

// All returns the migrations from lowest to highest version.
// Each call starts a fresh traversal.
func (m *Migrations) All() iter.Seq[Migration] {
	return func(yield func(Migration) bool) {
		if m == nil {
			return
		}
		for _, mg := range m.list {
			if !yield(mg) {
				return
			}
		}
	}
}

// Latest returns the highest registered version, or 0 if there are none.
func (m *Migrations) Latest() int {
	if m == nil || len(m.list) == 0 {
		return 0
	}
	return m.list[len(m.list)-1].Version
}

// Len returns the number of registered migrations.
func (m *Migrations) Len() int {
	if m == nil {
		return 0
	}
	return len(m.list)
}

// Has reports whether version is registered.
func (m *Migrations) Has(version int) bool {
	if m == nil {
		return false
	}
	_, found := slices.BinarySearchFunc(m.list, version, byVersion)
	return found
}

func byVersion(e Migration, version int) int {
	return cmp.Compare(e.Version, version)
}

// pending returns the migrations newer than current, in order.
func (m *Migrations) pending(current int) []Migration {
	var list []Migration
	for mg := range m.All() {
		if mg.Version > current {
			list = append(list, mg)
		}
	}
	return list
}

// SQL returns a transactional migration that executes script.
func SQL(script string) TxFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, script)
		return err
	}
}

// RawSQL returns a non-transactional migration that executes script
// directly on the connection. Each statement commits on its own.
func RawSQL(script string) ConnFunc {
	return func(ctx context.Context, conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, script)
		return err
	}
}

// reMigrationFile matches NNNN_comment.sql and NNNN_comment.notx.sql.
var reMigrationFile = regexp.MustCompile(`^(\d+)_(.+?)(\.notx)?\.sql$`)

// LoadMigrations builds a registry from the SQL scripts in the root of fsys.
// Files are named NNNN_comment.sql; the number is the migration version.
// A .notx.sql suffix registers the script as non-transactional.
// Other files are skipped.
func LoadMigrations(fsys fs.FS, logger *slog.Logger) (*Migrations, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	m := NewMigrations()
	seen := make(map[int]string)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		matches := reMigrationFile.FindStringSubmatch(name)
		if matches == nil {
			logger.Debug("skipping non-migration file", "name", name)
			continue
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil || version <= 0 || version > math.MaxInt32 {
			return nil, fmt.Errorf("invalid migration version in %q", name)
		}
		if existing, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d: %q and %q", version, existing, name)
		}
		seen[version] = name

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		if matches[3] != "" {
			m.AddNonTx(version, RawSQL(string(script)))
		} else {
			m.Add(version, SQL(string(script)))
		}
	}

	return m, nil
}
