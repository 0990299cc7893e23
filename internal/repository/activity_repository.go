package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

// ActivityRepo appends to and reads the activity_log table.  The log is
// strictly append-only; no update or delete paths exist.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

const activityCols = "id, action, entity_type, entity_id, user_id, project_id, metadata, created_at"

// Insert appends one entry and fills in ID and creation time.
func (r *ActivityRepo) Insert(ctx context.Context, e *model.ActivityEntry) error {
	return r.insert(ctx, r.DB.ExecContext, e)
}

// InsertTx appends one entry inside the caller's transaction.
func (r *ActivityRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.ActivityEntry) error {
	return r.insert(ctx, tx.ExecContext, e)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *ActivityRepo) insert(ctx context.Context, exec execFunc, e *model.ActivityEntry) error {
	now := time.Now().UTC().Truncate(time.Second)
	e.CreatedAt = now

	var meta any
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		meta = string(raw)
	}
	res, err := exec(ctx,
		"INSERT INTO activity_log (action, entity_type, entity_id, user_id, project_id, metadata, created_at) VALUES (?,?,?,?,?,?,?)",
		e.Action, e.EntityType, e.EntityID, e.UserID, e.ProjectID, meta, fmtTime(now))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListForProject returns a project's newest entries, capped at limit.
func (r *ActivityRepo) ListForProject(ctx context.Context, projectID uint64, limit int) ([]model.ActivityEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+activityCols+" FROM activity_log WHERE project_id=? ORDER BY id DESC LIMIT ?",
		projectID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectActivity(rows)
}

// ListRecent returns the newest entries across all projects, capped at
// limit.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+activityCols+" FROM activity_log ORDER BY id DESC LIMIT ?", clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectActivity(rows)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

func collectActivity(rows *sql.Rows) ([]model.ActivityEntry, error) {
	defer rows.Close()
	var out []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var projectID sql.NullInt64
		var meta sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.UserID, &projectID, &meta, &created); err != nil {
			return nil, err
		}
		if projectID.Valid {
			id := uint64(projectID.Int64)
			e.ProjectID = &id
		}
		if meta.Valid && meta.String != "" {
			_ = json.Unmarshal([]byte(meta.String), &e.Metadata)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
