// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build !mattn

package sqlitesetup

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are optimized for in-memory databases.
var memoryPragmas = []pragma{
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "MEMORY"},
	{name: "synchronous", value: "OFF"},
	{name: "temp_store", value: "MEMORY"},
}

// persistentPragmas are optimized for durable persistent databases.
// They are all connection scoped; the journal mode is persistent and is
// switched in setup once the file has been accepted.
var persistentPragmas = []pragma{
	{name: "busy_timeout", value: "5000"},
	{name: "synchronous", value: "NORMAL"},
	{name: "temp_store", value: "FILE"},
}

// statusPragmas are used for read-only inspection.
var statusPragmas = []pragma{
	{name: "busy_timeout", value: "5000"},
}

func foreignKeysPragma(on bool) pragma {
	if on {
		return pragma{name: "foreign_keys", value: "ON"}
	}
	return pragma{name: "foreign_keys", value: "OFF"}
}

// buildDSN constructs a DSN for modernc.org/sqlite.
// modernc uses the syntax: file:path?mode=rw&_pragma=name(value)&_pragma=name2(value2)
func buildDSN(path, mode string, pragmas []pragma) string {
	var sb strings.Builder

	sb.WriteString("file:")
	sb.WriteString(uriPath(path))
	sb.WriteString("?mode=")
	sb.WriteString(mode)
	if mode == modeMemory {
		sb.WriteString("&cache=shared")
	}

	for _, p := range pragmas {
		fmt.Fprintf(&sb, "&_pragma=%s(%s)", p.name, p.value)
	}

	return sb.String()
}

// isCantOpen reports whether err is SQLITE_CANTOPEN, which is what a
// mode=rw open of a missing file returns.
func isCantOpen(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CANTOPEN
}
