package corpus

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a new SQLite database in a temporary directory and a
// Store for testing. It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbFile+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-4000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db, NewDefaultTokenizer())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// setupTestDBWithDocument is a convenience helper that also ingests a small document.
func setupTestDBWithDocument(t *testing.T) (context.Context, *Store, DocumentInfo) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	doc, err := s.InsertDocument(ctx, "pets")
	if err != nil {
		t.Fatalf("setup: InsertDocument() failed: %v", err)
	}
	if _, err := s.Ingest(ctx, doc, strings.NewReader("The cat sat. The dog sat.")); err != nil {
		t.Fatalf("setup: Ingest() failed: %v", err)
	}
	return ctx, s, doc
}
