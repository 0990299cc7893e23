package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts the comment and re-reads it joined with the author
// name.  Parent validation happens in the handler before the write.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (file_id, user_id, parent_id, content, media_timestamp, is_resolved, created_at) VALUES (?,?,?,?,?,0,?)",
		c.FileID, c.UserID, c.ParentID, c.Content, c.Timestamp, fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	row := r.DB.QueryRowContext(ctx,
		`SELECT c.id, c.file_id, c.user_id, c.parent_id, c.content, c.media_timestamp, c.is_resolved, c.created_at, u.name
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id=? LIMIT 1`, id)
	got, err := scanComment(row.Scan, true)
	if err != nil {
		return err
	}
	*c = got
	return nil
}

// GetByID fetches a bare comment row.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id, file_id, user_id, parent_id, content, media_timestamp, is_resolved, created_at FROM comments WHERE id=? LIMIT 1", id)
	return scanComment(row.Scan, false)
}

// ListForFile returns a file's comments ordered by media timestamp,
// with author names and reactions attached.  Comments without a
// timestamp sort first on both drivers.
func (r *CommentRepo) ListForFile(ctx context.Context, fileID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.file_id, c.user_id, c.parent_id, c.content, c.media_timestamp, c.is_resolved, c.created_at, u.name
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.file_id=?
		 ORDER BY c.media_timestamp, c.created_at, c.id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comment
	index := make(map[uint64]int)
	for rows.Next() {
		c, err := scanComment(rows.Scan, true)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reacts, err := r.DB.QueryContext(ctx,
		`SELECT cr.id, cr.comment_id, cr.user_id, cr.emoji, cr.created_at
		 FROM comment_reactions cr JOIN comments c ON c.id = cr.comment_id
		 WHERE c.file_id=? ORDER BY cr.id`, fileID)
	if err != nil {
		return nil, err
	}
	defer reacts.Close()

	for reacts.Next() {
		var re model.Reaction
		var created string
		if err := reacts.Scan(&re.ID, &re.CommentID, &re.UserID, &re.Emoji, &created); err != nil {
			return nil, err
		}
		re.CreatedAt = parseTime(created)
		if i, ok := index[re.CommentID]; ok {
			out[i].Reactions = append(out[i].Reactions, re)
		}
	}
	return out, reacts.Err()
}

// SetResolved stores the resolution flag.  The handler reads the row
// first and only records activity when the value actually changed.
func (r *CommentRepo) SetResolved(ctx context.Context, id uint64, resolved bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET is_resolved=? WHERE id=?", boolInt(resolved), id)
	return err
}

// Delete removes the comment; replies and reactions go with it through
// the cascading foreign keys.
func (r *CommentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// CreatePublic inserts an anonymous share-link comment.
func (r *CommentRepo) CreatePublic(ctx context.Context, pc *model.PublicComment) error {
	now := time.Now().UTC().Truncate(time.Second)
	pc.CreatedAt = now
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO public_comments (share_link_id, file_id, display_name, content, media_timestamp, created_at) VALUES (?,?,?,?,?,?)",
		pc.ShareLinkID, pc.FileID, pc.DisplayName, pc.Content, pc.Timestamp, fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	pc.ID = uint64(id)
	return nil
}

// ListPublicForFile returns a file's anonymous comments in media
// timestamp order.
func (r *CommentRepo) ListPublicForFile(ctx context.Context, fileID uint64) ([]model.PublicComment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, share_link_id, file_id, display_name, content, media_timestamp, created_at FROM public_comments WHERE file_id=? ORDER BY media_timestamp, created_at, id",
		fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PublicComment
	for rows.Next() {
		var pc model.PublicComment
		var ts sql.NullFloat64
		var created string
		if err := rows.Scan(&pc.ID, &pc.ShareLinkID, &pc.FileID, &pc.DisplayName, &pc.Content, &ts, &created); err != nil {
			return nil, err
		}
		if ts.Valid {
			pc.Timestamp = &ts.Float64
		}
		pc.CreatedAt = parseTime(created)
		out = append(out, pc)
	}
	return out, rows.Err()
}

func scanComment(scan func(dest ...any) error, withAuthor bool) (model.Comment, error) {
	var c model.Comment
	var parent sql.NullInt64
	var ts sql.NullFloat64
	var resolved int
	var created string

	dest := []any{&c.ID, &c.FileID, &c.UserID, &parent, &c.Content, &ts, &resolved, &created}
	if withAuthor {
		dest = append(dest, &c.AuthorName)
	}
	err := scan(dest...)
	if err == sql.ErrNoRows {
		return model.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return model.Comment{}, err
	}
	if parent.Valid {
		id := uint64(parent.Int64)
		c.ParentID = &id
	}
	if ts.Valid {
		c.Timestamp = &ts.Float64
	}
	c.IsResolved = resolved != 0
	c.CreatedAt = parseTime(created)
	return c, nil
}
