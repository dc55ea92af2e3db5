package domain

import "errors"

// Registration and storage.
var (
	ErrValidation        = errors.New("all fields are required")
	ErrPasswordTooLong   = errors.New("password exceeds 72 bytes")
	ErrInvalidInput      = errors.New("invalid identity input")
	ErrDuplicateIdentity = errors.New("email already exists")
	ErrIdentityNotFound  = errors.New("identity not found")
)

// Login.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Access gate. ErrTokenExpired and ErrInvalidSignature are always wrapped
// together with ErrInvalidToken, so errors.Is matches either level.
var (
	ErrUnauthenticated  = errors.New("no token provided")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrInsufficientRole = errors.New("insufficient permissions")
)
