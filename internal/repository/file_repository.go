package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type FileRepo struct{ DB *sql.DB }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{DB: db} }

const fileCols = "id, name, description, filename, stored_name, file_type, file_size, project_id, uploaded_by_id, version, is_latest_version, created_at"

// CreateTx inserts the file row inside the caller's transaction and
// fills in ID and creation time.
func (r *FileRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.File) error {
	if f.Version == 0 {
		f.Version = 1
		f.IsLatestVersion = true
	}
	now := time.Now().UTC().Truncate(time.Second)
	f.CreatedAt = now

	res, err := tx.ExecContext(ctx,
		"INSERT INTO files (name, description, filename, stored_name, file_type, file_size, project_id, uploaded_by_id, version, is_latest_version, created_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		f.Name, f.Description, f.Filename, f.StoredName, f.FileType, f.FileSize, f.ProjectID, f.UploadedByID, f.Version, boolInt(f.IsLatestVersion), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID fetches a file by id.
func (r *FileRepo) GetByID(ctx context.Context, id uint64) (model.File, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+fileCols+" FROM files WHERE id=? LIMIT 1", id)
	return scanFile(row.Scan)
}

// ListForProject returns a project's files, newest first.
func (r *FileRepo) ListForProject(ctx context.Context, projectID uint64) ([]model.File, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+fileCols+" FROM files WHERE project_id=? ORDER BY created_at DESC, id DESC", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		f, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes the file and everything hanging off it in one
// transaction: public comments, comment trees (replies and reactions go
// with their roots), approvals, share links and processing rows.
func (r *FileRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	steps := []string{
		"DELETE FROM public_comments WHERE file_id=?",
		"DELETE FROM comments WHERE file_id=?",
		"DELETE FROM approvals WHERE file_id=?",
		"DELETE FROM share_links WHERE file_id=?",
		"DELETE FROM video_processing WHERE file_id=?",
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM files WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFileNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func scanFile(scan func(dest ...any) error) (model.File, error) {
	var f model.File
	var latest int
	var created string
	err := scan(&f.ID, &f.Name, &f.Description, &f.Filename, &f.StoredName, &f.FileType, &f.FileSize, &f.ProjectID, &f.UploadedByID, &f.Version, &latest, &created)
	if err == sql.ErrNoRows {
		return model.File{}, ErrFileNotFound
	}
	if err != nil {
		return model.File{}, err
	}
	f.IsLatestVersion = latest != 0
	f.CreatedAt = parseTime(created)
	return f, nil
}
