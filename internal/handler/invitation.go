package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/config"
	"github.com/tbnobed/obview/internal/mailer"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
	"github.com/tbnobed/obview/internal/token"
)

// emailTimeout bounds the provider call made after an invitation row is
// committed.  It is independent of the database timeout so a slow
// provider cannot eat the whole request budget.
const emailTimeout = 10 * time.Second

// InviteHandler serves the invitation lifecycle: create with
// best-effort email, public lookup, revocation and transactional
// acceptance.
type InviteHandler struct {
	Cfg      config.Config
	DB       *sql.DB
	Issuer   token.Issuer
	Invites  *repository.InvitationRepo
	Members  *repository.MembershipRepo
	Access   *Access
	Sender   mailer.Sender
	Recorder *activity.Recorder
	Logger   *zap.Logger
}

func NewInviteHandler(cfg config.Config, db *sql.DB, issuer token.Issuer, invites *repository.InvitationRepo, members *repository.MembershipRepo, access *Access, sender mailer.Sender, rec *activity.Recorder, logger *zap.Logger) *InviteHandler {
	if db == nil || invites == nil || members == nil || access == nil || sender == nil || rec == nil || logger == nil {
		panic("nil dependency passed to NewInviteHandler")
	}
	return &InviteHandler{Cfg: cfg, DB: db, Issuer: issuer, Invites: invites, Members: members, Access: access, Sender: sender, Recorder: rec, Logger: logger}
}

type createInviteReq struct {
	Email     string `json:"email"`
	ProjectID uint64 `json:"projectId"`
	Role      string `json:"role"`
}

// Create persists an invitation and then tries to deliver the accept
// link.  Delivery failure never fails the request: the row stays valid
// with email_sent false and the response carries emailSent so the UI
// can offer the link for manual sharing.  Duplicate pending invitations
// to the same address are allowed.
func (h *InviteHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createInviteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.ProjectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "projectId is required"})
	}
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}
	if !roles.ValidProject(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be editor or viewer"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	project, _, err := h.Access.Require(ctx, req.ProjectID, userID, roles.ActionInviteMember)
	if err != nil {
		return domainError(c, err)
	}

	inv := model.Invitation{
		Email:       req.Email,
		ProjectID:   req.ProjectID,
		Role:        req.Role,
		CreatedByID: userID,
	}
	tok, err := h.Issuer.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	inv.Token = tok.Raw
	inv.ExpiresAt = tok.ExpiresAt
	if err := h.Invites.Create(ctx, &inv); err != nil {
		// A 256-bit collision is effectively impossible, but the unique
		// column contract still calls for one regeneration attempt.
		if !errors.Is(err, repository.ErrConflict) {
			return domainError(c, err)
		}
		if tok, err = h.Issuer.New(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
		}
		inv.Token = tok.Raw
		inv.ExpiresAt = tok.ExpiresAt
		if err := h.Invites.Create(ctx, &inv); err != nil {
			return domainError(c, err)
		}
	}

	h.sendInviteEmail(c, &inv, project.Name, userID)

	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityCreateInvitation,
		EntityType: model.EntityInvitation,
		EntityID:   inv.ID,
		UserID:     userID,
		ProjectID:  &inv.ProjectID,
		Metadata:   map[string]any{"email": inv.Email, "role": inv.Role},
	})
	return c.JSON(http.StatusCreated, echo.Map{"invitation": inv, "emailSent": inv.EmailSent})
}

// sendInviteEmail delivers the accept link and flips email_sent on
// success.  Every failure is logged and swallowed.
func (h *InviteHandler) sendInviteEmail(c echo.Context, inv *model.Invitation, projectName string, inviterID uint64) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), emailTimeout)
	defer cancel()

	inviterName := "A teammate"
	if u, err := h.Access.Users.GetByID(ctx, inviterID); err == nil {
		inviterName = u.Name
	}
	msg := mailer.BuildInvite(h.Cfg.BaseURL, h.Cfg.EmailFrom, *inv, projectName, inviterName)
	if err := h.Sender.Send(ctx, msg); err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			h.Logger.Warn("invite email failed",
				zap.Uint64("invitation_id", inv.ID), zap.Error(err))
		}
		return
	}
	if err := h.Invites.MarkEmailSent(ctx, inv.ID); err != nil {
		h.Logger.Warn("mark email sent failed",
			zap.Uint64("invitation_id", inv.ID), zap.Error(err))
		return
	}
	inv.EmailSent = true
}

// Lookup returns the invitation behind a token together with the
// project name, so the landing page can describe the offer before the
// recipient signs in.  The token itself is the capability; no auth.
func (h *InviteHandler) Lookup(c echo.Context) error {
	tok := strings.TrimSpace(c.Param("token"))
	if tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invites.GetByToken(ctx, tok)
	if err != nil {
		return domainError(c, err)
	}
	project, err := h.Access.Projects.GetByID(ctx, inv.ProjectID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"invitation": inv, "projectName": project.Name})
}

// ListPending returns a project's unaccepted invitations, newest first.
func (h *InviteHandler) ListPending(c echo.Context) error {
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

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionInviteMember); err != nil {
		return domainError(c, err)
	}
	invites, err := h.Invites.ListPendingForProject(ctx, projectID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": invites})
}

// Revoke deletes a pending invitation.  Allowed for the project
// creator, a global admin or the original issuer; an invitation that
// was already consumed is no longer revocable and reads as missing.
func (h *InviteHandler) Revoke(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	inviteID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invitation id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := h.Invites.GetByID(ctx, inviteID)
	if err != nil {
		return domainError(c, err)
	}
	_, m, err := h.Access.Resolve(ctx, inv.ProjectID, userID)
	if err != nil {
		return domainError(c, err)
	}
	if !roles.CanPerform(m, roles.ActionManageMembers) && inv.CreatedByID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Invites.Delete(ctx, inviteID); err != nil {
		return domainError(c, err)
	}
	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityRevokeInvitation,
		EntityType: model.EntityInvitation,
		EntityID:   inviteID,
		UserID:     userID,
		ProjectID:  &inv.ProjectID,
		Metadata:   map[string]any{"email": inv.Email},
	})
	return c.NoContent(http.StatusNoContent)
}

// Accept turns a valid invitation into a membership.  The lookup,
// expiry and acceptance checks, the membership upsert, the acceptance
// mark and the activity entry all run in one transaction, retried once
// on a transient conflict.  Losing a race surfaces as 409 with the
// winner's membership attached when the caller already holds one, so
// clients can treat a retried accept as success.
func (h *InviteHandler) Accept(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tok := strings.TrimSpace(c.Param("token"))
	if tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	mem, inv, entry, err := h.accept(ctx, tok, userID)
	if err != nil && repository.IsRetryableTxError(err) {
		mem, inv, entry, err = h.accept(ctx, tok, userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvitationAccepted) && inv.ProjectID != 0 {
			if existing, mErr := h.Members.GetByProjectAndUser(ctx, inv.ProjectID, userID); mErr == nil {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":      "invitation already accepted",
					"membership": existing,
				})
			}
		}
		return domainError(c, err)
	}

	// Fan out only after the transaction is durable.
	h.Recorder.Publish(ctx, entry)
	return c.JSON(http.StatusOK, mem)
}

func (h *InviteHandler) accept(ctx context.Context, tok string, userID uint64) (model.Membership, model.Invitation, *model.ActivityEntry, error) {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Membership{}, model.Invitation{}, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	inv, err := h.Invites.GetByTokenTx(ctx, tx, tok)
	if err != nil {
		return model.Membership{}, model.Invitation{}, nil, err
	}
	if inv.Expired(time.Now().UTC()) {
		return model.Membership{}, inv, nil, repository.ErrInvitationExpired
	}
	if inv.IsAccepted {
		return model.Membership{}, inv, nil, repository.ErrInvitationAccepted
	}

	mem, err := h.Members.UpsertTx(ctx, tx, inv.ProjectID, userID, inv.Role)
	if err != nil {
		return model.Membership{}, inv, nil, err
	}
	if err := h.Invites.MarkAcceptedTx(ctx, tx, inv.ID); err != nil {
		return model.Membership{}, inv, nil, err
	}

	entry := &model.ActivityEntry{
		Action:     model.ActivityAcceptInvitation,
		EntityType: model.EntityProject,
		EntityID:   inv.ProjectID,
		UserID:     userID,
		ProjectID:  &inv.ProjectID,
	}
	h.Recorder.RecordTx(ctx, tx, entry)

	if err := tx.Commit(); err != nil {
		return model.Membership{}, inv, nil, err
	}
	committed = true
	return mem, inv, entry, nil
}
