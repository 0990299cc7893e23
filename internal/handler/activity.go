package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/repository"
)

// ActivityHandler serves the global audit feed.  The route carries the
// admin gate; per-project feeds live on the project handler.
type ActivityHandler struct {
	Activity *repository.ActivityRepo
}

func NewActivityHandler(activity *repository.ActivityRepo) *ActivityHandler {
	if activity == nil {
		panic("nil repository passed to NewActivityHandler")
	}
	return &ActivityHandler{Activity: activity}
}

// GlobalFeed returns the newest entries across all projects.
func (h *ActivityHandler) GlobalFeed(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Activity.ListRecent(ctx, limit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
