package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

// SQLiteStore is the embedded persistence option: a single-file database for
// applications that carry their own collector, and the backend used by tests
// (path ":memory:").
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at path.
// An empty path or ":memory:" yields an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: serializes writers, and keeps an in-memory database
	// from evaporating between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// EnsureSchema applies the embedded schema. Safe to run multiple times.
func (s *SQLiteStore) EnsureSchema() error {
	_, err := s.db.Exec(sqliteSchemaSQL)
	return err
}

// Ping validates database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close shuts down the database handle.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Insert persists a record and returns its generated id.
// A unique-identity conflict is reported as ErrDuplicate.
func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s(id, doc) VALUES (?, ?)`, table),
		id, string(docJSON),
	)
	if err != nil {
		if isConstraintError(err) {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

// FindOne returns a record matching all equality conditions, or ErrNotFound.
func (s *SQLiteStore) FindOne(ctx context.Context, collection string, conds Document) (string, Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", nil, err
	}

	where, args := condClauses(conds)

	var id string
	var docJSON string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s %s LIMIT 1`, table, where),
		args...,
	).Scan(&id, &docJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}

	var doc Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return "", nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return id, doc, nil
}

// IDs returns the ids of all records matching the equality conditions.
func (s *SQLiteStore) IDs(ctx context.Context, collection string, conds Document) ([]string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	where, args := condClauses(conds)

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s %s`, table, where),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns how many records match all equality conditions.
func (s *SQLiteStore) Count(ctx context.Context, collection string, conds Document) (int64, error) {
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}

	where, args := condClauses(conds)

	var count int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table, where),
		args...,
	).Scan(&count)
	return count, err
}

// Clear removes all records in a collection. Test/reset use only.
func (s *SQLiteStore) Clear(ctx context.Context, collection string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table))
	return err
}

// condClauses turns equality conditions into a WHERE clause over
// json_extract. Paths are bound as parameters, so condition keys never reach
// SQL as text.
func condClauses(conds Document) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds)*2)
	for k, v := range conds {
		clauses = append(clauses, `json_extract(doc, ?) = ?`)
		args = append(args, "$."+k, v)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
