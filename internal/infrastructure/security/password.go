package security

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/core/ports"
)

// BcryptHasher implements ports.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost (10)
// when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash refuses passwords bcrypt would otherwise truncate.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Verify never fails loudly: malformed hashes, cost errors and mismatches
// all report false. The comparison itself is constant time in bcrypt.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) bool {
	if ctx.Err() != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// BoundedHasher caps the number of hashes computed at once so a burst of
// logins cannot pin every CPU.
type BoundedHasher struct {
	inner ports.PasswordHasher
	sem   *semaphore.Weighted
}

// NewBoundedHasher wraps inner, allowing at most limit concurrent calls.
// A limit <= 0 means one.
func NewBoundedHasher(inner ports.PasswordHasher, limit int) *BoundedHasher {
	if limit <= 0 {
		limit = 1
	}
	return &BoundedHasher{inner: inner, sem: semaphore.NewWeighted(int64(limit))}
}

func (b *BoundedHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer b.sem.Release(1)
	return b.inner.Hash(ctx, plaintext)
}

func (b *BoundedHasher) Verify(ctx context.Context, plaintext, hash string) bool {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer b.sem.Release(1)
	return b.inner.Verify(ctx, plaintext, hash)
}
