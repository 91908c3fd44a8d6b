package store

import (
	"database/sql"
	"fmt"

	"github.com/hyperengineering/loginsync/migrations"
	"github.com/pressly/goose/v3"
)

// runMigrations applies all pending schema migrations using goose, reading
// the embedded SQL files from the migrations package.
func runMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
