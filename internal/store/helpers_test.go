package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/achapweske/silvernote/internal/model"
	"github.com/achapweske/silvernote/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "notes.db"), Options{
		User:  "alice",
		Clock: testutil.NewDeterministicClock(),
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newLegacyDB writes a version 1 store at a fresh path and returns the path.
func newLegacyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	script, err := os.ReadFile("testdata/schema_v1.sql")
	if err != nil {
		t.Fatalf("read legacy schema: %v", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(string(script)); err != nil {
		t.Fatalf("create legacy db: %v", err)
	}
	return path
}

func mustCreateNotebook(t *testing.T, s *Store, id int64, name string) {
	t.Helper()
	if err := s.CreateNotebook(context.Background(), model.Notebook{ID: id, Name: name}); err != nil {
		t.Fatalf("CreateNotebook(%d) failed: %v", id, err)
	}
}
