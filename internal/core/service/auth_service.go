package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/core/ports"
	"github.com/collabspace/collabspace/internal/pkg/metrics"
)

// dummyPassword is hashed once and compared against when the email is
// unknown, so both login failure paths pay for one bcrypt comparison.
const dummyPassword = "collabspace-timing-equalizer"

// AuthService implements registration and login.
type AuthService struct {
	repo    ports.IdentityRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	limiter ports.LoginLimiter // optional
	log     zerolog.Logger

	// dummyHash backs the comparison run for unknown emails.
	dummyHash string
}

// NewAuthService wires the service. limiter may be nil to disable throttling.
// The timing-equalization hash is computed here, detached from any request,
// so a cancelled login can never leave it empty.
func NewAuthService(
	repo ports.IdentityRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	limiter ports.LoginLimiter,
	log zerolog.Logger,
) (*AuthService, error) {
	dummyHash, err := hasher.Hash(context.Background(), dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare timing hash: %w", err)
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		limiter:   limiter,
		log:       log,
		dummyHash: dummyHash,
	}, nil
}

// Register hashes the password and stores a new identity. No token is
// issued; the caller logs in separately.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Identity, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrValidation
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return nil, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	identity := &domain.Identity{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.ParseRole(in.Role),
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.repo.Create(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			s.log.Info().Str("email", in.Email).Msg("registration rejected: email exists")
			return nil, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}
	identity.ID = id

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.log.Info().
		Str("id", id).
		Str("email", identity.Email).
		Str("role", identity.Role.String()).
		Msg("identity registered")

	return identity, nil
}

// Login verifies credentials and issues a session token. An unknown email
// and a wrong password both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		case !ok:
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			s.log.Warn().Str("email", email).Msg("login throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.verify(ctx, password, s.dummyHash)
			return nil, s.rejectLogin(ctx, email)
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.verify(ctx, password, identity.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return nil, s.rejectLogin(ctx, email)
	}

	token, expiresAt, err := s.tokens.Issue(domain.Principal{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  identity.Role,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login limiter")
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("id", identity.ID).Str("role", identity.Role.String()).Msg("login succeeded")

	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      identity.Role,
		Name:      identity.Name,
	}, nil
}

// ListIdentities returns every registered identity without password hashes.
func (s *AuthService) ListIdentities(ctx context.Context) ([]domain.IdentitySummary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return list, nil
}

func (s *AuthService) rejectLogin(ctx context.Context, email string) error {
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to record login failure")
		}
	}
	s.log.Info().Str("email", email).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

func (s *AuthService) hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	}()
	return s.hasher.Hash(ctx, password)
}

func (s *AuthService) verify(ctx context.Context, password, hash string) bool {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	}()
	return s.hasher.Verify(ctx, password, hash)
}
