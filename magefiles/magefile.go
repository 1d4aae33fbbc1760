//go:build mage

// Package main provides build targets for the sqlitesetup project using Mage.
//
// Usage:
//
//	mage build      Compile the sqlitesetup binary to bin/
//	mage test       Run all tests with the default (modernc) driver
//	mage testMattn  Run all tests with the CGO mattn driver
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "sqlitesetup"
	binaryDir  = "bin"
	cmdDir     = "./cmd/sqlitesetup"
)

// Build compiles the sqlitesetup binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestMattn runs the library tests against github.com/mattn/go-sqlite3.
func TestMattn() error {
	return sh.RunWith(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "-tags", "mattn", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	mg.Deps(Vet)
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet for both driver builds.
func Vet() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "vet", "-tags", "mattn", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
