package model

import "time"

// Approval statuses form a closed set.
const (
	ApprovalApproved         = "approved"
	ApprovalRequestedChanges = "requested_changes"
)

// ValidApprovalStatus reports whether s names a known decision status.
func ValidApprovalStatus(s string) bool {
	switch s {
	case ApprovalApproved, ApprovalRequestedChanges:
		return true
	}
	return false
}

// Approval represents a row in the `approvals` table.  The table is
// append-only: every decision inserts a new row and a reviewer's current
// standing on a file is the newest of their rows.  ReviewerName is
// filled by listing queries.
type Approval struct {
	ID           uint64    `json:"id"`
	FileID       uint64    `json:"fileId"`
	UserID       uint64    `json:"userId"`
	Status       string    `json:"status"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"createdAt"`
	ReviewerName string    `json:"reviewerName,omitempty"`
}
