package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectCols = "id, name, description, status, folder_id, created_by_id, created_at, updated_at"

// Create inserts the project and fills in ID and timestamps.  Status
// defaults to in_progress when unset.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	if p.Status == "" {
		p.Status = model.ProjectInProgress
	}
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO projects (name, description, status, folder_id, created_by_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		p.Name, p.Description, p.Status, p.FolderID, p.CreatedByID, fmtTime(now), fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+projectCols+" FROM projects WHERE id=? LIMIT 1", id)
	return scanProject(row.Scan)
}

// ListForUser returns projects the user created or is a member of,
// newest first.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectCols+" FROM projects WHERE created_by_id=? OR id IN (SELECT project_id FROM project_users WHERE user_id=?) ORDER BY created_at DESC, id DESC",
		userID, userID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListAll returns every project, newest first.  Admin dashboards use
// this view.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectCols+" FROM projects ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// Update stores name, description, status and folder assignment.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE projects SET name=?, description=?, status=?, folder_id=?, updated_at=? WHERE id=?",
		p.Name, p.Description, p.Status, p.FolderID, fmtTime(p.UpdatedAt), p.ID)
	return err
}

func collectProjects(rows *sql.Rows) ([]model.Project, error) {
	defer rows.Close()
	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(scan func(dest ...any) error) (model.Project, error) {
	var p model.Project
	var folderID sql.NullInt64
	var created, updated string
	err := scan(&p.ID, &p.Name, &p.Description, &p.Status, &folderID, &p.CreatedByID, &created, &updated)
	if err == sql.ErrNoRows {
		return model.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return model.Project{}, err
	}
	if folderID.Valid {
		id := uint64(folderID.Int64)
		p.FolderID = &id
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}
