package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
)

// RegisterPublic registers the anonymous share surface.  The share
// token is the only credential, so both routes sit behind the rate
// limiter.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, limiter echo.MiddlewareFunc) {
	e.GET("/public/:token", p.ShareView, limiter)
	e.POST("/public/:token/comments", p.PostComment, limiter)
}
