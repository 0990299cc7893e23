package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
)

// CommentHandler serves the authenticated review thread on a file:
// timestamped comments and replies, resolution toggling, deletion and
// emoji reactions.
type CommentHandler struct {
	Comments  *repository.CommentRepo
	Reactions *repository.ReactionRepo
	Access    *Access
	Recorder  *activity.Recorder
}

func NewCommentHandler(comments *repository.CommentRepo, reactions *repository.ReactionRepo, access *Access, rec *activity.Recorder) *CommentHandler {
	if comments == nil || reactions == nil || access == nil || rec == nil {
		panic("nil dependency passed to NewCommentHandler")
	}
	return &CommentHandler{Comments: comments, Reactions: reactions, Access: access, Recorder: rec}
}

// List returns a file's comments in media timestamp order with authors
// and reactions attached.
func (h *CommentHandler) List(c echo.Context) error {
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
	comments, err := h.Comments.ListForFile(ctx, fileID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": comments})
}

type postCommentReq struct {
	Content   string   `json:"content"`
	Timestamp *float64 `json:"timestamp"`
	ParentID  *uint64  `json:"parentId"`
}

// Post creates a comment or a reply.  A reply's parent must be a
// comment on the same file; anything else is a validation error, not a
// lookup miss.
func (h *CommentHandler) Post(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}
	var req postCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}
	if req.Timestamp != nil && *req.Timestamp < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "timestamp must not be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionComment)
	if err != nil {
		return domainError(c, err)
	}
	if req.ParentID != nil {
		parent, err := h.Comments.GetByID(ctx, *req.ParentID)
		if err != nil || parent.FileID != fileID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent comment not on this file"})
		}
	}

	comment := model.Comment{
		FileID:    fileID,
		UserID:    userID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		Timestamp: req.Timestamp,
	}
	if err := h.Comments.Create(ctx, &comment); err != nil {
		return domainError(c, err)
	}

	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityCreateComment,
		EntityType: model.EntityComment,
		EntityID:   comment.ID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"fileId": fileID},
	})
	return c.JSON(http.StatusCreated, comment)
}

type resolveReq struct {
	IsResolved *bool `json:"isResolved"`
}

// SetResolution sets the resolved flag on a comment.  Setting the flag
// to its current value succeeds without recording activity, so clients
// can retry freely.
func (h *CommentHandler) SetResolution(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req resolveReq
	if err := c.Bind(&req); err != nil || req.IsResolved == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isResolved is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	comment, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		return domainError(c, err)
	}
	f, _, err := h.Access.RequireFile(ctx, comment.FileID, userID, roles.ActionResolveComment)
	if err != nil {
		return domainError(c, err)
	}

	if comment.IsResolved == *req.IsResolved {
		return c.JSON(http.StatusOK, comment)
	}
	if err := h.Comments.SetResolved(ctx, commentID, *req.IsResolved); err != nil {
		return domainError(c, err)
	}
	comment.IsResolved = *req.IsResolved

	action := model.ActivityResolveComment
	if !comment.IsResolved {
		action = model.ActivityUnresolveComment
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     action,
		EntityType: model.EntityComment,
		EntityID:   comment.ID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
	})
	return c.JSON(http.StatusOK, comment)
}

// Delete removes a comment with its replies and reactions.  Allowed
// for the comment's author and for members who moderate the project.
func (h *CommentHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	comment, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		return domainError(c, err)
	}
	f, m, err := h.Access.RequireFile(ctx, comment.FileID, userID, roles.ActionViewProject)
	if err != nil {
		return domainError(c, err)
	}
	if comment.UserID != userID && !roles.CanPerform(m, roles.ActionModerateComments) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		return domainError(c, err)
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityDeleteComment,
		EntityType: model.EntityComment,
		EntityID:   commentID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
	})
	return c.NoContent(http.StatusNoContent)
}

type reactionReq struct {
	Emoji string `json:"emoji"`
}

// ToggleReaction adds the caller's emoji to a comment, or removes it
// when already present.  The response reports the state after the
// toggle.
func (h *CommentHandler) ToggleReaction(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Emoji = strings.TrimSpace(req.Emoji)
	if req.Emoji == "" || utf8.RuneCountInString(req.Emoji) > 8 || len(req.Emoji) > 16 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid emoji"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	comment, err := h.Comments.GetByID(ctx, commentID)
	if err != nil {
		return domainError(c, err)
	}
	f, _, err := h.Access.RequireFile(ctx, comment.FileID, userID, roles.ActionComment)
	if err != nil {
		return domainError(c, err)
	}

	reacted, err := h.Reactions.Toggle(ctx, commentID, userID, req.Emoji)
	if err != nil {
		return domainError(c, err)
	}

	action := model.ActivityAddReaction
	if !reacted {
		action = model.ActivityRemoveReaction
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     action,
		EntityType: model.EntityComment,
		EntityID:   commentID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"emoji": req.Emoji},
	})
	return c.JSON(http.StatusOK, echo.Map{"reacted": reacted, "emoji": req.Emoji})
}
