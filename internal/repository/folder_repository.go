package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type FolderRepo struct{ DB *sql.DB }

func NewFolderRepo(db *sql.DB) *FolderRepo { return &FolderRepo{DB: db} }

// Create inserts the folder and fills in ID and creation time.
func (r *FolderRepo) Create(ctx context.Context, f *model.Folder) error {
	now := time.Now().UTC().Truncate(time.Second)
	f.CreatedAt = now
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO folders (name, created_by_id, created_at) VALUES (?,?,?)",
		f.Name, f.CreatedByID, fmtTime(now))
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

// GetByID fetches a folder by id.
func (r *FolderRepo) GetByID(ctx context.Context, id uint64) (model.Folder, error) {
	var f model.Folder
	var created string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, created_by_id, created_at FROM folders WHERE id=? LIMIT 1",
		id).Scan(&f.ID, &f.Name, &f.CreatedByID, &created)
	if err == sql.ErrNoRows {
		return model.Folder{}, ErrFolderNotFound
	}
	if err != nil {
		return model.Folder{}, err
	}
	f.CreatedAt = parseTime(created)
	return f, nil
}

// List returns all folders by name.
func (r *FolderRepo) List(ctx context.Context) ([]model.Folder, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, created_by_id, created_at FROM folders ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Folder
	for rows.Next() {
		var f model.Folder
		var created string
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedByID, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = parseTime(created)
		out = append(out, f)
	}
	return out, rows.Err()
}
