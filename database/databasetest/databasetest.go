// Package databasetest opens migrated SQLite databases for tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"friendsd/database"
)

// Open returns a migrated SQLite database in a per-test temp directory. The
// pool is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "friends.db"))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
