package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
)

// UserHandler serves account management.  The admin-only routes sit
// behind the manage-users capability gate in the router; theme updates
// are self-service.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// List returns every account.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// UpdateRole sets another account's global role.
func (h *UserHandler) UpdateRole(c echo.Context) error {
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if !roles.ValidGlobal(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin, editor or viewer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, targetID); err != nil {
		return domainError(c, err)
	}
	if err := h.Users.UpdateRole(ctx, targetID, req.Role); err != nil {
		return domainError(c, err)
	}
	user, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateTheme stores the caller's theme preference.
func (h *UserHandler) UpdateTheme(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req struct {
		Theme string `json:"themePreference"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Theme = strings.ToLower(strings.TrimSpace(req.Theme))
	if !model.ValidTheme(req.Theme) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "themePreference must be light, dark or system"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateTheme(ctx, userID, req.Theme); err != nil {
		return domainError(c, err)
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
