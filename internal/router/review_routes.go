package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
)

// RegisterReview registers the review surface on files: the comment
// thread with reactions and the append-only approval log.
func RegisterReview(e *echo.Echo, cm *handler.CommentHandler, ap *handler.ApprovalHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	g.GET("/files/:id/comments", cm.List)
	g.POST("/files/:id/comments", cm.Post)
	g.PATCH("/comments/:id", cm.SetResolution)
	g.DELETE("/comments/:id", cm.Delete)
	g.POST("/comments/:id/reactions", cm.ToggleReaction)

	g.GET("/files/:id/approvals", ap.List)
	g.POST("/files/:id/approvals", ap.Submit)
	g.GET("/files/:id/approvals/latest", ap.Latest)
}
