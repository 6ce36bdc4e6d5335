package store

import (
	"database/sql"
	"fmt"

	"github.com/hyperengineering/goodday/internal/store/migrations"
	"github.com/pressly/goose/v3"
)

// SchemaVersion is recorded in the metadata table after migrations run.
const SchemaVersion = "2"

// Migrate brings the cache schema up to date using the embedded goose
// migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := db.Exec(`
		INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, SchemaVersion)
	return err
}

// Version reports the goose schema version of db.
func Version(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
