package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/collabspace/collabspace/internal/core/domain"
)

// TokenTTL is the fixed lifetime of a session token.
const TokenTTL = time.Hour

var ErrEmptySecret = errors.New("jwt signing secret is empty")

// Claims is the payload of a session token.
type Claims struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Name   string      `json:"name"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 session tokens. It holds no session
// state; a token is valid purely by signature and expiry.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

type JWTOption func(*JWTManager)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) { m.now = now }
}

func NewJWTManager(secret string, opts ...JWTOption) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	m := &JWTManager{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs a token for p that expires exactly TokenTTL after issuance.
func (m *JWTManager) Issue(p domain.Principal) (string, time.Time, error) {
	issued := m.now().UTC().Truncate(time.Second)
	expires := issued.Add(TokenTTL)

	claims := Claims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
		Name:   p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify returns the principal carried by token. Expired tokens fail with
// domain.ErrTokenExpired; every other failure is domain.ErrInvalidSignature.
// Both also match domain.ErrInvalidToken.
func (m *JWTManager) Verify(token string) (*domain.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrTokenExpired)
	default:
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrInvalidSignature)
	}

	if !claims.Role.Valid() || claims.UserID == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, domain.ErrInvalidSignature)
	}

	return &domain.Principal{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}
