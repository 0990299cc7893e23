package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

// MembershipRepo persists project_users rows.  The unique key on
// (project_id, user_id) makes acceptance writes collapse into a single
// atomic insert-or-update; there is no read-check-insert window.
type MembershipRepo struct {
	DB     *sql.DB
	driver string
}

func NewMembershipRepo(db *sql.DB, driver string) *MembershipRepo {
	return &MembershipRepo{DB: db, driver: driver}
}

const membershipCols = "id, project_id, user_id, role, created_at"

// UpsertTx inserts the membership or, when the pair already exists,
// updates its role in place.  It returns the row as stored after the
// write.  Runs inside the caller's transaction.
func (r *MembershipRepo) UpsertTx(ctx context.Context, tx *sql.Tx, projectID, userID uint64, role string) (model.Membership, error) {
	now := fmtTime(time.Now().UTC())
	stmt := "INSERT INTO project_users (project_id, user_id, role, created_at) VALUES (?,?,?,?) ON DUPLICATE KEY UPDATE role=VALUES(role)"
	if r.driver == "sqlite" {
		stmt = "INSERT INTO project_users (project_id, user_id, role, created_at) VALUES (?,?,?,?) ON CONFLICT(project_id, user_id) DO UPDATE SET role=excluded.role"
	}
	if _, err := tx.ExecContext(ctx, stmt, projectID, userID, role, now); err != nil {
		if isDuplicateKey(err) {
			return model.Membership{}, ErrConflict
		}
		return model.Membership{}, err
	}

	row := tx.QueryRowContext(ctx,
		"SELECT "+membershipCols+" FROM project_users WHERE project_id=? AND user_id=? LIMIT 1",
		projectID, userID)
	return scanMembership(row.Scan)
}

// GetByProjectAndUser fetches a single membership row.
func (r *MembershipRepo) GetByProjectAndUser(ctx context.Context, projectID, userID uint64) (model.Membership, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+membershipCols+" FROM project_users WHERE project_id=? AND user_id=? LIMIT 1",
		projectID, userID)
	return scanMembership(row.Scan)
}

// ListForProject returns memberships joined with user details, oldest
// first.
func (r *MembershipRepo) ListForProject(ctx context.Context, projectID uint64) ([]model.Member, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT pu.id, pu.project_id, pu.user_id, pu.role, pu.created_at, u.username, u.name, u.email
		 FROM project_users pu
		 JOIN users u ON u.id = pu.user_id
		 WHERE pu.project_id=?
		 ORDER BY pu.created_at, pu.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		var created string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &created, &m.Username, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a member from a project.
func (r *MembershipRepo) Delete(ctx context.Context, projectID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM project_users WHERE project_id=? AND user_id=?", projectID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func scanMembership(scan func(dest ...any) error) (model.Membership, error) {
	var m model.Membership
	var created string
	err := scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &created)
	if err == sql.ErrNoRows {
		return model.Membership{}, ErrMembershipNotFound
	}
	if err != nil {
		return model.Membership{}, err
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}
