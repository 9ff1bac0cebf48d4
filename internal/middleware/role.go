package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns the authorization gate for a route group.  An
// anonymous request (no principal bound by the identity filter) gets 401;
// an authenticated principal holding none of the allowed roles gets 403.
// The check is plain set intersection over role names.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !p.HasAnyRole(roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
