// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build mattn

package sqlitesetup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// driverName is the database/sql name registered by github.com/mattn/go-sqlite3.
const driverName = "sqlite3"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are optimized for in-memory databases.
var memoryPragmas = []pragma{
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "MEMORY"},
	{name: "_synchronous", value: "OFF"},
}

// persistentPragmas are optimized for durable persistent databases.
// They are all connection scoped; the journal mode is persistent and is
// switched in setup once the file has been accepted.
var persistentPragmas = []pragma{
	{name: "_busy_timeout", value: "5000"},
	{name: "_synchronous", value: "NORMAL"},
}

// statusPragmas are used for read-only inspection.
var statusPragmas = []pragma{
	{name: "_busy_timeout", value: "5000"},
}

func foreignKeysPragma(on bool) pragma {
	if on {
		return pragma{name: "_foreign_keys", value: "1"}
	}
	return pragma{name: "_foreign_keys", value: "0"}
}

// buildDSN constructs a DSN for github.com/mattn/go-sqlite3.
// mattn uses the syntax: file:path?mode=rw&_foreign_keys=1&_synchronous=NORMAL
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
		fmt.Fprintf(&sb, "&%s=%s", p.name, p.value)
	}

	return sb.String()
}

// isCantOpen reports whether err is SQLITE_CANTOPEN, which is what a
// mode=rw open of a missing file returns.
func isCantOpen(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrCantOpen
}
