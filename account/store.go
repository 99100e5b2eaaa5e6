package account

import (
	"context"
	"time"
)

// ListOptions pages through active accounts.
type ListOptions struct {
	Role   Role
	Limit  int
	Offset int
}

// Store persists accounts. Every lookup sees active accounts only.
//
// Implementations must apply an Update atomically: the fields it names are
// written together or not at all.
type Store interface {
	// FindByID loads an account. The password hash is stripped unless
	// includeHash is set.
	FindByID(ctx context.Context, id string, includeHash bool) (Account, error)
	FindByEmail(ctx context.Context, email string, includeHash bool) (Account, error)
	// FindByResetTokenHash matches the stored reset hash and requires its
	// expiry to be after now.
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (Account, error)
	// Create inserts a and returns it with its assigned ID.
	Create(ctx context.Context, a Account) (Account, error)
	Update(ctx context.Context, id string, u Update, opts UpdateOptions) (Account, error)
	List(ctx context.Context, opts ListOptions) ([]Account, error)
	// Delete removes the record permanently. Deactivation is an Update.
	Delete(ctx context.Context, id string) error
}
