package migrations

import (
	_ "embed"

	"github.com/tradingstrategy-ai/reorgmon/internal/db"
)

//go:embed 001_block_headers.sql
var mig0001 string

// RunMigrations runs all migrations for the block-header archive database.
func RunMigrations(dbPath string) error {
	migrations := []db.Migration{
		{
			ID:  "001_block_headers.sql",
			SQL: mig0001,
		},
	}

	return db.RunMigrations(dbPath, migrations)
}
