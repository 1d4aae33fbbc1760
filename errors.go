// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlitesetup

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyClosed is returned when the database handle was closed before
// or during setup.
var ErrAlreadyClosed = errors.New("database already closed")

// IdentityMismatchError reports a file stamped with another application id.
// The file is left untouched.
type IdentityMismatchError struct {
	Found int32 // application_id read from the file
	Want  int32 // configured application id
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("wrong application id: got %d, want %d", e.Found, e.Want)
}

// OutOfDateError reports a database whose schema is newer than any
// migration this build knows about.
type OutOfDateError struct {
	DBVersion       int
	LatestMigration int
}

func (e *OutOfDateError) Error() string {
	return fmt.Sprintf("app out of date: database at version %d but app works with version %d", e.DBVersion, e.LatestMigration)
}

// MigrationError wraps the error returned by a migration.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// EngineError wraps a failure reported by the SQLite engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// SchemaVersionError reports a migrated database that does not match
// Config.RequiredSchemaVersion.
type SchemaVersionError struct {
	Required int
	Found    int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("schema version mismatch: required %d, found %d", e.Required, e.Found)
}

// engineErr classifies err as ErrAlreadyClosed or wraps it as an EngineError.
func engineErr(op string, err error) error {
	if isClosed(err) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyClosed)
	}
	return &EngineError{Op: op, Err: err}
}

// isClosed checks if an error indicates the handle is gone.
// database/sql does not export its "database is closed" error.
func isClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, ErrAlreadyClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
