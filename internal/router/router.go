// Package router wires the HTTP surface: route registration, the JWT
// gate on /api, the capability gates on admin endpoints and the rate
// limiter on the credential and anonymous paths.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
)

// RegisterRoutes registers the unauthenticated service endpoints.
// /healthz is the canonical liveness path; /api/health remains for
// clients that predate it.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.Health)
}

// RegisterAuth registers the session lifecycle.  The limiter guards
// the credential endpoints against brute force; /auth/user is the only
// route here behind the JWT gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/logout", a.Logout)
	g.GET("/user", a.Me, middleware.JWTAuth(jwtSecret))
}
