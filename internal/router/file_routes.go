package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
)

// RegisterFiles registers upload, metadata, content, deletion,
// processing status and share-link management.
func RegisterFiles(e *echo.Echo, f *handler.FileHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	g.GET("/projects/:id/files", f.List)
	g.POST("/projects/:id/files", f.Upload)
	g.GET("/files/:id", f.Get)
	g.GET("/files/:id/content", f.Download)
	g.DELETE("/files/:id", f.Delete)
	g.GET("/files/:id/processing", f.ProcessingStatus)
	g.POST("/files/:id/share", f.CreateShare)
	g.GET("/files/:id/share", f.ListShares)
}
