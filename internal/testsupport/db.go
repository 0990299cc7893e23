// Package testsupport provides database fixtures and seed helpers for
// tests.  Every fixture runs against a real sqlite database file in a
// per-test temp directory, exercising the same repositories and schema
// the service runs in production.
package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/tbnobed/obview/internal/database"
)

// OpenDB opens a throwaway sqlite database with the schema applied and
// registers cleanup.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "obview.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// Count returns the number of rows the query yields.  The query must
// select a single COUNT(*) column.
func Count(t testing.TB, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count query: %v", err)
	}
	return n
}
