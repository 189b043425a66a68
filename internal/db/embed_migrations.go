package db

import "embed"

// MigrationFS embeds the portal schema from internal/db/migrations. Applied by cmd/migrate and,
// for development, by cmd/seed before inserting demo data.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
