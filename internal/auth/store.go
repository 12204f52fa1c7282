package auth

import "context"

// IdentityStore persists identity records. Implementations must enforce
// username and email uniqueness and surface collisions as
// ErrDuplicateUsername / ErrDuplicateEmail; uniqueness is enforced by
// constraint, not by check-then-insert.
type IdentityStore interface {
	Create(ctx context.Context, id *Identity) error
	FindByID(ctx context.Context, id string) (*Identity, error)
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// ListEmails returns every registered email address, for notification
	// fan-out.
	ListEmails(ctx context.Context) ([]string, error)
	// Count reports how many identities exist; a non-empty role restricts
	// the count to that role.
	Count(ctx context.Context, role string) (int64, error)
}
