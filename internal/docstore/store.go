// Package docstore defines the document collection store used for the dashboard
// dataset (users, companies, projects, trending, renewals) and the bulk
// replacement logic that rebuilds those collections.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Ref is an opaque reference to a stored document.
type Ref string

// RefIter streams document references from a collection without fetching payloads.
type RefIter interface {
	// Next advances to the next reference. Returns false when exhausted or on error.
	Next() bool
	// Ref returns the current reference. Valid only after Next returned true.
	Ref() Ref
	// Err returns the error that stopped iteration, if any.
	Err() error
	Close() error
}

// ErrNotFound is returned when no document matches a lookup.
var ErrNotFound = errors.New("docstore: document not found")

// StoreError wraps a failed store operation. Deleted preserves how many documents
// were already removed when a replacement fails partway, for diagnostics.
type StoreError struct {
	Op         string
	Collection string
	Deleted    int
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("docstore: %s %s (deleted=%d): %v", e.Op, e.Collection, e.Deleted, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is the document store collaborator. A batch operation is atomic per
// batch: it either applies to all its documents or none of them.
type Store interface {
	// StreamRefs streams references for every document in collection, payload-free.
	StreamRefs(ctx context.Context, collection string) (RefIter, error)
	// DeleteBatch removes the referenced documents as one atomic multi-delete.
	DeleteBatch(ctx context.Context, refs []Ref) error
	// InsertBatch writes docs to collection as one atomic multi-set. Each doc is
	// JSON-marshaled; ids are assigned by the store.
	InsertBatch(ctx context.Context, collection string, docs []any) error
	// FindOne returns the single document in collection whose field equals value,
	// or ErrNotFound.
	FindOne(ctx context.Context, collection, field, value string) (Ref, map[string]any, error)
	// Merge applies patch to the referenced document, preserving unrelated fields.
	// Returns ErrNotFound if the document no longer exists.
	Merge(ctx context.Context, ref Ref, patch map[string]any) error
	// Upsert merges patch into the document with the given id, creating it when absent.
	Upsert(ctx context.Context, collection, id string, patch map[string]any) error
}
