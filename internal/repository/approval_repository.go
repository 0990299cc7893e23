package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

// ApprovalRepo persists the append-only decision log.  Rows are never
// updated or deleted; a reviewer changes their mind by appending.
type ApprovalRepo struct{ DB *sql.DB }

func NewApprovalRepo(db *sql.DB) *ApprovalRepo { return &ApprovalRepo{DB: db} }

// Create appends a decision row and fills in ID and creation time.
func (r *ApprovalRepo) Create(ctx context.Context, a *model.Approval) error {
	now := time.Now().UTC().Truncate(time.Second)
	a.CreatedAt = now
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO approvals (file_id, user_id, status, feedback, created_at) VALUES (?,?,?,?,?)",
		a.FileID, a.UserID, a.Status, a.Feedback, fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListForFile returns the full decision log in submission order with
// reviewer names attached.
func (r *ApprovalRepo) ListForFile(ctx context.Context, fileID uint64) ([]model.Approval, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.file_id, a.user_id, a.status, a.feedback, a.created_at, u.name
		 FROM approvals a JOIN users u ON u.id = a.user_id
		 WHERE a.file_id=? ORDER BY a.created_at, a.id`, fileID)
	if err != nil {
		return nil, err
	}
	return collectApprovals(rows)
}

// LatestForFile returns each reviewer's newest decision.  Rows sharing
// a second on created_at are tie-broken by id, which follows insert
// order.
func (r *ApprovalRepo) LatestForFile(ctx context.Context, fileID uint64) ([]model.Approval, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.file_id, a.user_id, a.status, a.feedback, a.created_at, u.name
		 FROM approvals a JOIN users u ON u.id = a.user_id
		 WHERE a.id IN (SELECT MAX(id) FROM approvals WHERE file_id=? GROUP BY user_id)
		 ORDER BY a.user_id`, fileID)
	if err != nil {
		return nil, err
	}
	return collectApprovals(rows)
}

func collectApprovals(rows *sql.Rows) ([]model.Approval, error) {
	defer rows.Close()
	var out []model.Approval
	for rows.Next() {
		var a model.Approval
		var created string
		if err := rows.Scan(&a.ID, &a.FileID, &a.UserID, &a.Status, &a.Feedback, &created, &a.ReviewerName); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}
