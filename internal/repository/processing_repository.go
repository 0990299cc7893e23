package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tbnobed/obview/internal/model"
)

// ProcessingRepo persists video_processing status rows.  The table is a
// placeholder read by clients; nothing in this service advances the
// status beyond pending.
type ProcessingRepo struct{ DB *sql.DB }

func NewProcessingRepo(db *sql.DB) *ProcessingRepo { return &ProcessingRepo{DB: db} }

// CreateTx inserts a pending row for a freshly uploaded video inside
// the caller's transaction.
func (r *ProcessingRepo) CreateTx(ctx context.Context, tx *sql.Tx, fileID uint64) error {
	now := fmtTime(time.Now().UTC())
	_, err := tx.ExecContext(ctx,
		"INSERT INTO video_processing (file_id, status, error_message, created_at, updated_at) VALUES (?,?,NULL,?,?)",
		fileID, model.ProcessingPending, now, now)
	return err
}

// GetByFileID fetches the processing row for a file.  sql.ErrNoRows
// passes through for files without one (non-video uploads).
func (r *ProcessingRepo) GetByFileID(ctx context.Context, fileID uint64) (model.VideoProcessing, error) {
	var vp model.VideoProcessing
	var errMsg sql.NullString
	var created, updated string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, file_id, status, error_message, created_at, updated_at FROM video_processing WHERE file_id=? LIMIT 1",
		fileID).Scan(&vp.ID, &vp.FileID, &vp.Status, &errMsg, &created, &updated)
	if err != nil {
		return model.VideoProcessing{}, err
	}
	vp.ErrorMessage = errMsg.String
	vp.CreatedAt = parseTime(created)
	vp.UpdatedAt = parseTime(updated)
	return vp, nil
}
