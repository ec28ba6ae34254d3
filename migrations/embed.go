// Package migrations ships the SQLite schema with the binary.
package migrations

import "embed"

// FS holds the versioned migration files, named NNN_description.sql
//
//go:embed *.sql
var FS embed.FS
