package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type InvitationRepo struct{ DB *sql.DB }

func NewInvitationRepo(db *sql.DB) *InvitationRepo { return &InvitationRepo{DB: db} }

const invitationCols = "id, email, project_id, role, token, expires_at, is_accepted, email_sent, created_by_id, created_at"

// Create inserts the invitation and fills in ID and creation time.  A
// token collision surfaces as ErrConflict; the caller regenerates the
// token once before giving up.
func (r *InvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	now := time.Now().UTC().Truncate(time.Second)
	inv.CreatedAt = now

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO invitations (email, project_id, role, token, expires_at, is_accepted, email_sent, created_by_id, created_at) VALUES (?,?,?,?,?,0,0,?,?)",
		inv.Email, inv.ProjectID, inv.Role, inv.Token, fmtTime(inv.ExpiresAt), inv.CreatedByID, fmtTime(now))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetByToken fetches an invitation by its token.
func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (model.Invitation, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+invitationCols+" FROM invitations WHERE token=? LIMIT 1", token)
	return scanInvitation(row.Scan)
}

// GetByTokenTx is GetByToken inside the caller's transaction.
func (r *InvitationRepo) GetByTokenTx(ctx context.Context, tx *sql.Tx, token string) (model.Invitation, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+invitationCols+" FROM invitations WHERE token=? LIMIT 1", token)
	return scanInvitation(row.Scan)
}

// GetByID fetches an invitation by id.
func (r *InvitationRepo) GetByID(ctx context.Context, id uint64) (model.Invitation, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+invitationCols+" FROM invitations WHERE id=? LIMIT 1", id)
	return scanInvitation(row.Scan)
}

// ListPendingForProject returns unaccepted invitations for a project,
// most recent first.  Expired rows are included; clients read expiresAt.
func (r *InvitationRepo) ListPendingForProject(ctx context.Context, projectID uint64) ([]model.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+invitationCols+" FROM invitations WHERE project_id=? AND is_accepted=0 ORDER BY created_at DESC, id DESC",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// MarkAcceptedTx flips is_accepted inside the caller's transaction.
// When another transaction won the race the row no longer matches and
// ErrInvitationAccepted is returned.
func (r *InvitationRepo) MarkAcceptedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE invitations SET is_accepted=1 WHERE id=? AND is_accepted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvitationAccepted
	}
	return nil
}

// MarkEmailSent records a successful delivery of the invite email.
func (r *InvitationRepo) MarkEmailSent(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE invitations SET email_sent=1 WHERE id=?", id)
	return err
}

// Delete revokes a pending invitation.  Accepted or missing rows return
// ErrInvitationNotFound; a consumed invitation is no longer revocable.
func (r *InvitationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM invitations WHERE id=? AND is_accepted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func scanInvitation(scan func(dest ...any) error) (model.Invitation, error) {
	var inv model.Invitation
	var accepted, sent int
	var expires, created string
	err := scan(&inv.ID, &inv.Email, &inv.ProjectID, &inv.Role, &inv.Token, &expires, &accepted, &sent, &inv.CreatedByID, &created)
	if err == sql.ErrNoRows {
		return model.Invitation{}, ErrInvitationNotFound
	}
	if err != nil {
		return model.Invitation{}, err
	}
	inv.ExpiresAt = parseTime(expires)
	inv.IsAccepted = accepted != 0
	inv.EmailSent = sent != 0
	inv.CreatedAt = parseTime(created)
	return inv, nil
}
