package ports

import (
	"context"

	"github.com/collabspace/collabspace/internal/core/domain"
)

// IdentityRepository is the credential store. Implementations enforce email
// uniqueness themselves; the service never checks-then-inserts.
type IdentityRepository interface {
	// Create persists a new identity and returns its generated id.
	// Returns domain.ErrDuplicateIdentity on an email collision and
	// domain.ErrInvalidInput on an empty name, email or hash.
	Create(ctx context.Context, identity *domain.Identity) (string, error)
	// FindByEmail returns domain.ErrIdentityNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// List returns every identity in creation order without password hashes.
	List(ctx context.Context) ([]domain.IdentitySummary, error)
}
