package store

import "context"

// IdentityStore persists session identities across daemon restarts.
type IdentityStore interface {
	// Save inserts or updates the identity for its (owner, logical name)
	// pair.
	Save(ctx context.Context, ident *Identity) error

	// Get returns the identity for (owner, logicalName), or
	// apperrors.ErrNotFound when none is persisted.
	Get(ctx context.Context, owner, logicalName string) (*Identity, error)

	// Delete removes the identity for (owner, logicalName). Deleting a
	// missing identity is not an error.
	Delete(ctx context.Context, owner, logicalName string) error

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error
}
