package db

import "embed"

// MigrationFS embeds the SQL migrations under internal/db/migrations so
// cmd/migrate and the runner apply them from the binary itself.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
