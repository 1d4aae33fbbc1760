// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package main provides the sqlitesetup CLI, which opens, migrates and
// inspects SQLite databases using the sqlitesetup library.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
