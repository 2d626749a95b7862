package database

import (
	"path/filepath"
	"testing"
)

// setupTestDB opens a throwaway SQLite database in a per-test temp
// directory. createTables runs automatically for SQLite, so the schema is
// ready without migrations.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "shotcoach_test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})

	return db
}
