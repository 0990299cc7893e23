package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
)

// FolderHandler serves the flat folder list used to organise projects.
type FolderHandler struct {
	Folders *repository.FolderRepo
}

func NewFolderHandler(folders *repository.FolderRepo) *FolderHandler {
	if folders == nil {
		panic("nil repository passed to NewFolderHandler")
	}
	return &FolderHandler{Folders: folders}
}

// Create makes a new folder.  The create-project capability gate runs
// in the router; anyone who can create projects can group them.
func (h *FolderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	folder := model.Folder{Name: req.Name, CreatedByID: userID}
	if err := h.Folders.Create(ctx, &folder); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, folder)
}

// List returns all folders by name.
func (h *FolderHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	folders, err := h.Folders.List(ctx)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": folders})
}
