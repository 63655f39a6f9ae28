package store

import (
	"context"
	"errors"
	"fmt"
)

// Collections used by the engine. Adapters only accept these names so
// collection identifiers never reach SQL unchecked.
const (
	Features = "features"
	Logs     = "logs"
)

var (
	// ErrNotFound is returned by FindOne when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned by Insert when a record with the same
	// identity fields already exists. The resolver treats this as
	// "someone else just created it" and re-fetches.
	ErrDuplicate = errors.New("duplicate record")
)

// Document is an open record: whatever fields the caller supplied are stored
// and returned verbatim.
type Document map[string]any

// Store is the persistence contract the engine is written against.
// Any backend offering equality-keyed lookup and insert with a generated
// per-record id can satisfy it.
type Store interface {
	// Insert appends a record and returns its generated id. It must not
	// silently drop fields. A unique-identity conflict yields ErrDuplicate.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// FindOne returns any one record matching all equality conditions,
	// or ErrNotFound. No ordering is guaranteed.
	FindOne(ctx context.Context, collection string, conds Document) (string, Document, error)

	// IDs returns the ids of every record matching all equality
	// conditions. No matches is not an error: the result is empty.
	IDs(ctx context.Context, collection string, conds Document) ([]string, error)

	// Count returns the number of records matching all equality conditions.
	Count(ctx context.Context, collection string, conds Document) (int64, error)

	// Clear removes every record in the collection. Test/reset use only.
	Clear(ctx context.Context, collection string) error

	// Ping validates backend connectivity (readiness endpoint).
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close()
}

// tableFor maps a collection name to its table, rejecting anything outside
// the known set.
func tableFor(collection string) (string, error) {
	switch collection {
	case Features, Logs:
		return collection, nil
	}
	return "", fmt.Errorf("unknown collection %q", collection)
}
