// Package config carries the small set of process-wide constants and
// CLI defaults, in the same spirit as the teacher's internal/config
// package: a version string, recognized source extensions, and
// environment-driven defaults for the command-line entry point.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Version is the current qry version. Set at build time via
// -ldflags "-X github.com/nyrkio/qry/internal/config.Version=...".
var Version = "0.1.0"

// SourceFileExt is the canonical extension for qry source files.
const SourceFileExt = ".qry"

// SourceFileExtensions are all extensions HasSourceExt recognizes as
// source files. cmd/qry takes explicit file paths and does not consult
// them.
var SourceFileExtensions = []string{".qry"}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Defaults holds CLI-level configuration that can be overridden by a
// .env file or environment variables. These never affect the core
// evaluator, only how cmd/qry wires one up.
type Defaults struct {
	// DSN is the sqlite driver data source name loaded from QRY_DB_DSN.
	// Nothing in cmd/qry reads it; scripts always pass a path to
	// connect_sqlite.
	DSN string
	// HistoryFile is where the REPL persists its input history.
	HistoryFile string
}

// LoadDefaults reads a .env file from the current directory, if present,
// then resolves Defaults from the environment. Mirrors the
// fileExists-then-godotenv.Load pattern used for CLI configuration
// elsewhere in the example pack.
func LoadDefaults() Defaults {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	d := Defaults{
		DSN:         ":memory:",
		HistoryFile: ".qry_history",
	}
	if v := os.Getenv("QRY_DB_DSN"); v != "" {
		d.DSN = v
	}
	if v := os.Getenv("QRY_HISTORY_FILE"); v != "" {
		d.HistoryFile = v
	}
	return d
}
