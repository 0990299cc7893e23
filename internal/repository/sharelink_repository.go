package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type ShareLinkRepo struct{ DB *sql.DB }

func NewShareLinkRepo(db *sql.DB) *ShareLinkRepo { return &ShareLinkRepo{DB: db} }

// Create inserts the link and fills in ID and creation time.  A token
// collision surfaces as ErrConflict; the caller regenerates once.
func (r *ShareLinkRepo) Create(ctx context.Context, l *model.ShareLink) error {
	now := time.Now().UTC().Truncate(time.Second)
	l.CreatedAt = now

	var expires any
	if l.ExpiresAt != nil {
		expires = fmtTime(*l.ExpiresAt)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO share_links (file_id, token, created_by_id, expires_at, created_at) VALUES (?,?,?,?,?)",
		l.FileID, l.Token, l.CreatedByID, expires, fmtTime(now))
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
	l.ID = uint64(id)
	return nil
}

// GetByToken fetches a share link by its token.
func (r *ShareLinkRepo) GetByToken(ctx context.Context, token string) (model.ShareLink, error) {
	var l model.ShareLink
	var expires sql.NullString
	var created string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, file_id, token, created_by_id, expires_at, created_at FROM share_links WHERE token=? LIMIT 1",
		token).Scan(&l.ID, &l.FileID, &l.Token, &l.CreatedByID, &expires, &created)
	if err == sql.ErrNoRows {
		return model.ShareLink{}, ErrShareLinkNotFound
	}
	if err != nil {
		return model.ShareLink{}, err
	}
	l.ExpiresAt = parseNullTime(expires)
	l.CreatedAt = parseTime(created)
	return l, nil
}

// ListForFile returns a file's share links, newest first.
func (r *ShareLinkRepo) ListForFile(ctx context.Context, fileID uint64) ([]model.ShareLink, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, file_id, token, created_by_id, expires_at, created_at FROM share_links WHERE file_id=? ORDER BY created_at DESC, id DESC",
		fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ShareLink
	for rows.Next() {
		var l model.ShareLink
		var expires sql.NullString
		var created string
		if err := rows.Scan(&l.ID, &l.FileID, &l.Token, &l.CreatedByID, &expires, &created); err != nil {
			return nil, err
		}
		l.ExpiresAt = parseNullTime(expires)
		l.CreatedAt = parseTime(created)
		out = append(out, l)
	}
	return out, rows.Err()
}
