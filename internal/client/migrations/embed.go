// Package migrations holds the local SQLite schema as goose migrations.
// Migrations only ever add tables, columns and indexes.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
