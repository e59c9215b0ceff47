// Package docstore provides the document store the user and vitals domains
// persist into: JSON documents addressed by a partition key, each carrying a
// version token used for optimistic check-and-set writes.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no document exists for the given key.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a document already exists for the given key.
	ErrConflict = errors.New("document already exists")

	// ErrVersionMismatch indicates the expected version token is stale; the
	// document was modified since it was read.
	ErrVersionMismatch = errors.New("document version mismatch")
)

// Document is a stored JSON document and its version token.
type Document struct {
	Key     string
	Data    []byte
	Version int64
}

// Store is the contract the domain repositories are written against.
// Get and Create are single atomic calls; Upsert is a check-and-set keyed on
// the version read earlier, so read-modify-write sequences can detect lost
// updates and retry.
type Store interface {
	// Get returns the document for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Document, error)

	// Create inserts a new document at version 1, or fails with ErrConflict
	// if the key already exists.
	Create(ctx context.Context, key string, data []byte) error

	// Upsert replaces the document body if the stored version still equals
	// expectedVersion, returning the new version. Fails with ErrNotFound if
	// the key is absent and ErrVersionMismatch when the token is stale.
	Upsert(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error)

	// ListByRole returns documents whose "role" field matches role, newest
	// last, with the total count across all pages.
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*Document, int, error)
}
