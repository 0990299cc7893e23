package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/middleware"
	"github.com/tbnobed/obview/internal/roles"
)

// RegisterProjects registers project CRUD, the member roster, folders
// and the per-project activity feed.  Creating projects and folders
// needs the global create capability; everything project-scoped is
// authorized inside the handlers through Access.
func RegisterProjects(e *echo.Echo, p *handler.ProjectHandler, f *handler.FolderHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	g.POST("/projects", p.Create, middleware.RequireAction(roles.ActionCreateProject))
	g.GET("/projects", p.List)
	g.GET("/projects/:id", p.Get)
	g.PATCH("/projects/:id", p.Update)
	g.GET("/projects/:id/members", p.ListMembers)
	g.DELETE("/projects/:id/members/:userID", p.RemoveMember)
	g.GET("/projects/:id/activity", p.ActivityFeed)

	g.POST("/folders", f.Create, middleware.RequireAction(roles.ActionCreateProject))
	g.GET("/folders", f.List)
}
