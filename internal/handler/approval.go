package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
)

// ApprovalHandler serves the append-only decision log on a file.
type ApprovalHandler struct {
	Approvals *repository.ApprovalRepo
	Access    *Access
	Recorder  *activity.Recorder
}

func NewApprovalHandler(approvals *repository.ApprovalRepo, access *Access, rec *activity.Recorder) *ApprovalHandler {
	if approvals == nil || access == nil || rec == nil {
		panic("nil dependency passed to NewApprovalHandler")
	}
	return &ApprovalHandler{Approvals: approvals, Access: access, Recorder: rec}
}

type submitApprovalReq struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// Submit appends a decision.  Repeat submissions by the same reviewer
// append further rows; the latest one per reviewer is their current
// standing.
func (h *ApprovalHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}
	var req submitApprovalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidApprovalStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be approved or requested_changes"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionApprove)
	if err != nil {
		return domainError(c, err)
	}

	approval := model.Approval{
		FileID:   fileID,
		UserID:   userID,
		Status:   req.Status,
		Feedback: strings.TrimSpace(req.Feedback),
	}
	if err := h.Approvals.Create(ctx, &approval); err != nil {
		return domainError(c, err)
	}

	action := model.ActivityApprove
	if approval.Status == model.ApprovalRequestedChanges {
		action = model.ActivityRequestChanges
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     action,
		EntityType: model.EntityApproval,
		EntityID:   approval.ID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"fileId": fileID, "status": approval.Status},
	})
	return c.JSON(http.StatusCreated, approval)
}

// List returns the full decision log in submission order.
func (h *ApprovalHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	approvals, err := h.Approvals.ListForFile(ctx, fileID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": approvals})
}

// Latest returns each reviewer's newest decision, the file's current
// review standing.
func (h *ApprovalHandler) Latest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	approvals, err := h.Approvals.LatestForFile(ctx, fileID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": approvals})
}
