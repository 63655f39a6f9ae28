package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the collector can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the shared-backend persistence option, for deployments
// where several application processes report into one database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Insert persists a record and returns its generated id.
// A unique-identity conflict is reported as ErrDuplicate.
func (p *PostgresStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.New().String()
	_, err = p.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s(id, doc) VALUES ($1, $2)`, table),
		id, docJSON,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

// FindOne returns a record matching all equality conditions via JSONB
// containment, or ErrNotFound.
func (p *PostgresStore) FindOne(ctx context.Context, collection string, conds Document) (string, Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", nil, err
	}

	condsJSON, err := json.Marshal(conds)
	if err != nil {
		return "", nil, fmt.Errorf("marshal conditions: %w", err)
	}

	var id string
	var docJSON []byte
	err = p.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s WHERE doc @> $1 LIMIT 1`, table),
		condsJSON,
	).Scan(&id, &docJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}

	var doc Document
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return "", nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return id, doc, nil
}

// IDs returns the ids of all records matching the equality conditions.
func (p *PostgresStore) IDs(ctx context.Context, collection string, conds Document) ([]string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	condsJSON, err := json.Marshal(conds)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE doc @> $1`, table),
		condsJSON,
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
func (p *PostgresStore) Count(ctx context.Context, collection string, conds Document) (int64, error) {
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}

	condsJSON, err := json.Marshal(conds)
	if err != nil {
		return 0, fmt.Errorf("marshal conditions: %w", err)
	}

	var count int64
	err = p.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE doc @> $1`, table),
		condsJSON,
	).Scan(&count)
	return count, err
}

// Clear removes all records in a collection. Test/reset use only.
func (p *PostgresStore) Clear(ctx context.Context, collection string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, table))
	return err
}
