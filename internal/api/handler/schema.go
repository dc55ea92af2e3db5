package handler

import "encoding/json"

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	// Role is decoded leniently: any JSON value is accepted and only the
	// exact string "ADMIN" grants that role.
	Role json.RawMessage `json:"role" swaggertype:"string"`
}

// requestedRole returns the role string the client sent, or "" when the
// value is absent or not a JSON string.
func (r registerRequest) requestedRole() string {
	var role string
	if err := json.Unmarshal(r.Role, &role); err != nil {
		return ""
	}
	return role
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type adminDashboardResponse struct {
	Message string             `json:"message"`
	Users   []identityResponse `json:"users"`
}
