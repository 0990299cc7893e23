package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
	"github.com/tbnobed/obview/internal/roles"
)

// RegisterAdmin registers user administration and the global activity
// feed.  The capability gates read the role claim minted into the
// access token; a demoted admin keeps these routes until the token
// expires, which is the accepted JWT trade-off.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, act *handler.ActivityHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	g.GET("/users", u.List, middleware.RequireAction(roles.ActionManageUsers))
	g.PATCH("/users/:id/role", u.UpdateRole, middleware.RequireAction(roles.ActionManageUsers))
	g.PATCH("/users/me/theme", u.UpdateTheme)

	g.GET("/activity", act.GlobalFeed, middleware.RequireAction(roles.ActionViewGlobalActivity))
}
