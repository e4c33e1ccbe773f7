package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/config"
)

// NewTestDB opens a migrated in-memory SQLite database that is closed when the
// test finishes.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{Driver: string(SQLite), Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
