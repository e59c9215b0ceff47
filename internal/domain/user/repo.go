package user

import "context"

// Repository persists user documents keyed by lowercased email.
type Repository interface {
	// Create writes a new user document. Fails with docstore.ErrConflict
	// when the email is already registered.
	Create(ctx context.Context, u *User) error

	// GetByEmail returns the user document, or docstore.ErrNotFound.
	// The returned user carries the document version token.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update replaces the user document, checking u.Version against the
	// stored token. Fails with docstore.ErrVersionMismatch when stale.
	// On success u.Version holds the new token.
	Update(ctx context.Context, u *User) error

	// ListByRole returns a page of users with the given role and the total
	// count.
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*User, int, error)
}
