// Package testutil provides shared test helpers for setting up databases and
// note services.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/notesd/internal/notes"
	"github.com/starford/notesd/internal/store"
)

// TestDB opens a migrated SQLite database in a temporary directory that is
// removed when the test ends.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "notesd-test.db"), store.OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService returns a note service over a fresh database. maxNotes <= 0
// selects the default capacity.
func TestService(t *testing.T, maxNotes int) *notes.Service {
	t.Helper()
	return notes.NewService(TestDB(t), notes.Options{MaxNotes: maxNotes})
}
