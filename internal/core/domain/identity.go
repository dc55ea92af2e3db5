package domain

import "time"

// Role is the closed set of access levels an identity can hold.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes a requested role. Anything other than the exact
// string "ADMIN" becomes RoleUser.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Identity is a registered user record.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary drops everything a listing must not expose.
func (i *Identity) Summary() IdentitySummary {
	return IdentitySummary{ID: i.ID, Name: i.Name, Email: i.Email, Role: i.Role}
}

// IdentitySummary is the public projection of an Identity.
type IdentitySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}
