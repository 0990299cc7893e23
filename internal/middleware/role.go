package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/roles"
)

// RequireAction gates a route on an account-level capability derived
// from the JWT role claim alone.  Project-scoped capabilities cannot be
// decided here; handlers resolve those against the membership table.
func RequireAction(action roles.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !roles.CanPerform(roles.Membership{Global: roles.Global(role)}, action) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
