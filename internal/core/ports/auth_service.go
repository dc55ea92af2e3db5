package ports

import (
	"context"
	"time"

	"github.com/collabspace/collabspace/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // requested; normalized by the service
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Role      domain.Role
	Name      string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ListIdentities(ctx context.Context) ([]domain.IdentitySummary, error)
}
