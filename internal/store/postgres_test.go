package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

// Postgres tests need a reachable database; they are skipped unless
// TEST_DATABASE_URL is set. The same contract is exercised in-process by the
// SQLite tests.
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	st, err := NewPostgresStore(dbURL)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	if err := st.EnsureSchema(); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	ctx := context.Background()
	if err := st.Clear(ctx, Features); err != nil {
		t.Fatalf("clear features: %v", err)
	}
	if err := st.Clear(ctx, Logs); err != nil {
		t.Fatalf("clear logs: %v", err)
	}
	return st
}

func TestPostgres_InsertFindDuplicate(t *testing.T) {
	st := newPostgresStore(t)
	ctx := context.Background()

	id, err := st.Insert(ctx, Features, Document{"app_name": "A", "path": "/x"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	gotID, doc, err := st.FindOne(ctx, Features, Document{"app_name": "A", "path": "/x"})
	if err != nil {
		t.Fatalf("findOne: %v", err)
	}
	if gotID != id || doc["path"] != "/x" {
		t.Fatalf("round trip failed: id=%s doc=%v", gotID, doc)
	}

	if _, err := st.Insert(ctx, Features, Document{"app_name": "A", "path": "/x"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, _, err := st.FindOne(ctx, Features, Document{"app_name": "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
