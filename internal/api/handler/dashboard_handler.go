package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabspace/collabspace/internal/api/middleware"
	"github.com/collabspace/collabspace/internal/core/domain"
)

// IdentityLister is the slice of the auth service the admin dashboard needs.
type IdentityLister interface {
	ListIdentities(ctx context.Context) ([]domain.IdentitySummary, error)
}

// DashboardHandler serves the role-gated dashboards. Both routes sit behind
// the access gate.
type DashboardHandler struct {
	identities IdentityLister
}

func NewDashboardHandler(identities IdentityLister) *DashboardHandler {
	return &DashboardHandler{identities: identities}
}

// Admin lists every registered identity.
//
// @Summary      Admin dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminDashboardResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /api/admin/dashboard [get]
func (h *DashboardHandler) Admin(c echo.Context) error {
	list, err := h.identities.ListIdentities(c.Request().Context())
	if err != nil {
		return err
	}

	users := make([]identityResponse, 0, len(list))
	for _, u := range list {
		users = append(users, identityResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role.String()})
	}

	return c.JSON(http.StatusOK, adminDashboardResponse{
		Message: "Welcome to Admin Dashboard",
		Users:   users,
	})
}

// User greets the authenticated caller.
//
// @Summary      User dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /api/user/dashboard [get]
func (h *DashboardHandler) User(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Welcome to User Dashboard, " + p.Name})
}
