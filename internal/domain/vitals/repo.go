package vitals

import "context"

// Repository reads and writes the vitals subobject of a user document.
// The version token returned by Get must be passed back to Put so concurrent
// read-merge-write sequences are detected instead of silently losing samples.
type Repository interface {
	// Get returns the user's vitals and the document version token.
	// Fails with docstore.ErrNotFound when the user does not exist.
	Get(ctx context.Context, userID string) (*Vitals, int64, error)

	// Put replaces the vitals subobject, leaving the rest of the user
	// document untouched. Fails with docstore.ErrVersionMismatch when the
	// document changed since Get.
	Put(ctx context.Context, userID string, v *Vitals, expectedVersion int64) error
}
