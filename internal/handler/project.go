package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
)

// ProjectHandler serves project CRUD, the member roster and the
// per-project activity feed.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Members  *repository.MembershipRepo
	Folders  *repository.FolderRepo
	Activity *repository.ActivityRepo
	Access   *Access
	Recorder *activity.Recorder
}

func NewProjectHandler(projects *repository.ProjectRepo, members *repository.MembershipRepo, folders *repository.FolderRepo, act *repository.ActivityRepo, access *Access, rec *activity.Recorder) *ProjectHandler {
	if projects == nil || members == nil || folders == nil || act == nil || access == nil || rec == nil {
		panic("nil dependency passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects, Members: members, Folders: folders, Activity: act, Access: access, Recorder: rec}
}

type createProjectReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	FolderID    *uint64 `json:"folderId"`
}

type updateProjectReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	FolderID    *uint64 `json:"folderId"`
}

// Create makes a new project owned by the caller.  The create-project
// capability gate runs in the router.
func (h *ProjectHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createProjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.FolderID != nil {
		if _, err := h.Folders.GetByID(ctx, *req.FolderID); err != nil {
			return domainError(c, err)
		}
	}
	project := model.Project{
		Name:        req.Name,
		Description: req.Description,
		FolderID:    req.FolderID,
		CreatedByID: userID,
	}
	if err := h.Projects.Create(ctx, &project); err != nil {
		return domainError(c, err)
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityCreateProject,
		EntityType: model.EntityProject,
		EntityID:   project.ID,
		UserID:     userID,
		ProjectID:  &project.ID,
		Metadata:   map[string]any{"name": project.Name},
	})
	return c.JSON(http.StatusCreated, project)
}

// List returns the caller's projects, newest first.  Admins see every
// project; everyone else sees what they created or joined.
func (h *ProjectHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	var projects []model.Project
	if role, _ := c.Get("role").(string); roles.Global(role) == roles.GlobalAdmin {
		projects, err = h.Projects.ListAll(ctx)
	} else {
		projects, err = h.Projects.ListForUser(ctx, userID)
	}
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": projects})
}

// Get returns one project for anyone with view access.
func (h *ProjectHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	project, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionViewProject)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, project)
}

// Update patches name, description, status and folder assignment.
func (h *ProjectHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	var req updateProjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	project, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionEditProject)
	if err != nil {
		return domainError(c, err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be in_progress, in_review or approved"})
		}
		project.Status = *req.Status
	}
	if req.FolderID != nil {
		if _, err := h.Folders.GetByID(ctx, *req.FolderID); err != nil {
			return domainError(c, err)
		}
		project.FolderID = req.FolderID
	}

	if err := h.Projects.Update(ctx, &project); err != nil {
		return domainError(c, err)
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityUpdateProject,
		EntityType: model.EntityProject,
		EntityID:   project.ID,
		UserID:     userID,
		ProjectID:  &project.ID,
		Metadata:   map[string]any{"status": project.Status},
	})
	return c.JSON(http.StatusOK, project)
}

// ListMembers returns the membership roster with user details.
func (h *ProjectHandler) ListMembers(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	members, err := h.Members.ListForProject(ctx, projectID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": members})
}

// RemoveMember drops a user from the project.  Only the creator or a
// global admin may manage the roster.
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	memberID, ok := pathID(c, "userID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionManageMembers); err != nil {
		return domainError(c, err)
	}
	if err := h.Members.Delete(ctx, projectID, memberID); err != nil {
		return domainError(c, err)
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityRemoveMember,
		EntityType: model.EntityProject,
		EntityID:   projectID,
		UserID:     userID,
		ProjectID:  &projectID,
		Metadata:   map[string]any{"memberId": memberID},
	})
	return c.NoContent(http.StatusNoContent)
}

// ActivityFeed returns the project's newest activity entries.
func (h *ProjectHandler) ActivityFeed(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.Activity.ListForProject(ctx, projectID, limit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
