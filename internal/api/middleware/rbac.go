package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/pkg/metrics"
)

// Authorize admits callers whose role is in allowed. It must run after
// Authenticate; a request without a principal is unauthenticated.
func Authorize(allowed ...domain.Role) Stage {
	var admitAdmin, admitUser bool
	for _, r := range allowed {
		switch r {
		case domain.RoleAdmin:
			admitAdmin = true
		case domain.RoleUser:
			admitUser = true
		}
	}

	return func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			metrics.GateRejectionsTotal.WithLabelValues("unauthenticated").Inc()
			return domain.ErrUnauthenticated
		}

		var admitted bool
		switch p.Role {
		case domain.RoleAdmin:
			admitted = admitAdmin
		case domain.RoleUser:
			admitted = admitUser
		default:
			admitted = false
		}
		if !admitted {
			metrics.GateRejectionsTotal.WithLabelValues("insufficient_role").Inc()
			return domain.ErrInsufficientRole
		}
		return nil
	}
}
