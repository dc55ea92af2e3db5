package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/core/ports"
)

// Stage is one step of a request pipeline. Returning nil continues with
// whatever the stage stored on the context; returning an error
// short-circuits the request and hands the error to the HTTP error handler.
type Stage func(c echo.Context) error

// Chain runs stages in order before next.
func Chain(stages ...Stage) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, stage := range stages {
				if err := stage(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// Gate is the access gate: authentication, then authorization against
// allowed. The order is fixed so a missing or invalid token never reaches
// the role check.
func Gate(verifier ports.TokenVerifier, allowed ...domain.Role) echo.MiddlewareFunc {
	return Chain(Authenticate(verifier), Authorize(allowed...))
}
