// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package sqlitesetup opens SQLite databases that belong to one application
// and brings their schema up to date before handing them to the caller.
//
// Two integers in the SQLite file header carry the state:
//   - application_id identifies the application that owns the file
//   - user_version records the highest migration applied
//
// Both are part of the on-disk contract. Any other program using the same
// protocol reads and writes the same two slots.
//
// # Basic Usage
//
//	const appID = 1337
//
//	migrations := sqlitesetup.NewMigrations().
//	    Add(1, sqlitesetup.SQL(`CREATE TABLE user (id INTEGER PRIMARY KEY)`)).
//	    Add(2, sqlitesetup.SQL(`ALTER TABLE user ADD COLUMN name TEXT NOT NULL DEFAULT 'Unknown'`))
//
//	db, err := sqlitesetup.Open(ctx, sqlitesetup.Config{
//	    Path:       "/var/lib/app/app.db",
//	    AppID:      appID,
//	    Migrations: migrations,
//	})
//
// # Open Protocol
//
// Open first tries to open an existing file. Only when SQLite reports that
// the file cannot be opened does it retry with creation allowed; such a file
// is new. A new file is stamped with the application id. An existing file
// must already carry it, or Open fails with *IdentityMismatchError and the
// file is not touched.
//
// Foreign key enforcement is then set (on unless DisableForeignKeys), the
// current user_version is read, and every migration with a higher version
// is applied in ascending order. If user_version is higher than the newest
// registered migration, Open fails with *OutOfDateError: an older build is
// opening a file written by a newer one.
//
// # Migrations
//
// Migrations are registered once, never changed and never removed.
// Transactional migrations (Add) run in one shared transaction; if any of
// them fails, nothing is committed and user_version is unchanged.
//
// Non-transactional migrations (AddNonTx) run on the bare connection. They
// exist for statements that cannot run inside a transaction. Whatever they
// commit before failing stays on disk and they will run again on the next
// Open, so they must be idempotent.
//
// Registering a version that is not positive, or registering the same
// version twice, panics.
//
// # Driver Support
//
// This package supports two SQLite drivers via build tags:
//   - modernc.org/sqlite (default, pure Go, no CGO)
//   - github.com/mattn/go-sqlite3 (CGO, use -tags mattn)
//
// The package imports the selected driver itself.
package sqlitesetup
