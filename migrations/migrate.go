package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// Migrate brings the cache store schema up to date for the given goose
// dialect ("sqlite3" or "pgx"). The two backends share table and column
// names but differ in surrogate-key syntax, so each carries its own
// migration directory.
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)

	var dir string
	switch dialect {
	case "sqlite3":
		dir = "sqlite"
	case "pgx":
		dir = "postgres"
	default:
		return fmt.Errorf("migration error: unsupported dialect %q", dialect)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
