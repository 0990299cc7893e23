package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReactionRepo persists emoji reactions on comments.
type ReactionRepo struct{ DB *sql.DB }

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{DB: db} }

// Toggle adds the emoji for the user, or removes it when the same
// reaction already exists.  Returns true when the reaction exists after
// the call.
func (r *ReactionRepo) Toggle(ctx context.Context, commentID, userID uint64, emoji string) (bool, error) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO comment_reactions (comment_id, user_id, emoji, created_at) VALUES (?,?,?,?)",
		commentID, userID, emoji, fmtTime(time.Now().UTC()))
	if err == nil {
		return true, nil
	}
	if !isDuplicateKey(err) {
		return false, err
	}

	_, err = r.DB.ExecContext(ctx,
		"DELETE FROM comment_reactions WHERE comment_id=? AND user_id=? AND emoji=?",
		commentID, userID, emoji)
	return false, err
}
