package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
)

// RegisterInvites registers the invitation lifecycle.  The token
// lookup is public so the landing page can describe the offer before
// sign-in; it shares the rate limiter with the other anonymous
// endpoints.  Accepting requires a session, which is how the invited
// address becomes a user id.
func RegisterInvites(e *echo.Echo, i *handler.InviteHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.GET("/api/invite/:token", i.Lookup, limiter)

	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	g.POST("/invite", i.Create)
	g.DELETE("/invite/:id", i.Revoke)
	g.POST("/invite/:token/accept", i.Accept)
	g.GET("/projects/:id/invites", i.ListPending)
}
