package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/collabspace/collabspace/internal/core/domain"
	"github.com/collabspace/collabspace/internal/core/ports"
	"github.com/collabspace/collabspace/internal/pkg/metrics"
)

const principalKey = "principal"

type principalCtxKey struct{}

// Authenticate verifies the bearer token and stores the resolved principal
// on both the echo context and the request context.
func Authenticate(verifier ports.TokenVerifier) Stage {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			metrics.GateRejectionsTotal.WithLabelValues("unauthenticated").Inc()
			return domain.ErrUnauthenticated
		}

		p, err := verifier.Verify(token)
		if err != nil {
			reason := "invalid_signature"
			if errors.Is(err, domain.ErrTokenExpired) {
				reason = "expired"
			}
			metrics.GateRejectionsTotal.WithLabelValues(reason).Inc()
			return err
		}

		SetPrincipal(c, p)
		return nil
	}
}

// SetPrincipal attaches p to the echo context and the request context.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), principalCtxKey{}, p)))
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFrom returns the principal stored by Authenticate.
func PrincipalFrom(c echo.Context) (*domain.Principal, bool) {
	p, ok := c.Get(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// PrincipalFromContext is PrincipalFrom for code that only sees the request
// context.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*domain.Principal)
	return p, ok && p != nil
}
