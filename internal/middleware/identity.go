package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cbcoder/dealer-webapp/internal/auth"
	"github.com/cbcoder/dealer-webapp/internal/repository"
)

// principalKey is the echo context key the identity filter binds the
// resolved principal under.
const principalKey = "principal"

// Authenticate returns the request identity filter.  It runs once per
// request, before any role gate, and resolves a Bearer access token into a
// Principal bound to the request context:
//
//   - no Authorization header, or not a Bearer scheme: pass through
//     anonymous
//   - token fails to parse (bad signature, malformed): anonymous
//   - subject not found in the credential store: anonymous
//   - token does not validate against the loaded user: anonymous
//
// The filter never rejects a request itself; rejection happens at the
// RequireRole gate based on whether a principal was bound.  Identity
// resolution fails open to anonymous, authorization fails closed.
func Authenticate(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			subject, err := auth.Subject(secret, raw)
			if err != nil {
				return next(c)
			}
			if PrincipalFrom(c) != nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByEmail(ctx, subject)
			if err != nil {
				return next(c)
			}
			p := auth.NewPrincipal(&u)
			if auth.Validate(secret, raw, p) {
				c.Set(principalKey, p)
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal bound to the request, or nil when
// the request is anonymous.
func PrincipalFrom(c echo.Context) *auth.Principal {
	p, _ := c.Get(principalKey).(*auth.Principal)
	return p
}

// BindPrincipal binds a principal directly.  Used by tests to exercise
// gated handlers without minting tokens.
func BindPrincipal(c echo.Context, p *auth.Principal) {
	c.Set(principalKey, p)
}
