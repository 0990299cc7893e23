// Package activity writes the append-only audit trail.  Recording is
// fire-and-forget: an insert or publish failure is logged and swallowed
// so the operation that triggered it always proceeds.
package activity

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/events"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
)

type Recorder struct {
	repo      *repository.ActivityRepo
	publisher *events.Publisher
	logger    *zap.Logger
}

func NewRecorder(repo *repository.ActivityRepo, publisher *events.Publisher, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, publisher: publisher, logger: logger}
}

// Record appends the entry and fans it out to the broker.
func (r *Recorder) Record(ctx context.Context, e *model.ActivityEntry) {
	if err := r.repo.Insert(ctx, e); err != nil {
		r.logger.Warn("record activity failed",
			zap.String("action", e.Action), zap.Error(err))
		return
	}
	r.Publish(ctx, e)
}

// RecordTx appends the entry inside the caller's transaction.  Publish
// must wait for the commit, so callers invoke Publish themselves once
// the transaction lands.
func (r *Recorder) RecordTx(ctx context.Context, tx *sql.Tx, e *model.ActivityEntry) {
	if err := r.repo.InsertTx(ctx, tx, e); err != nil {
		r.logger.Warn("record activity failed",
			zap.String("action", e.Action), zap.Error(err))
	}
}

// Publish sends the entry to the broker, ignoring failures beyond a
// warn log.
func (r *Recorder) Publish(ctx context.Context, e *model.ActivityEntry) {
	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	ev := events.ActivityEvent{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		ProjectID:  e.ProjectID,
		Metadata:   e.Metadata,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
	_ = r.publisher.Publish(ctx, ev)
}
