package model

import "time"

// Project statuses form a closed set.
const (
	ProjectInProgress = "in_progress"
	ProjectInReview   = "in_review"
	ProjectApproved   = "approved"
)

// ValidProjectStatus reports whether s names a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectInProgress, ProjectInReview, ProjectApproved:
		return true
	}
	return false
}

// Project represents a row in the `projects` table.  Projects are never
// hard-deleted; FolderID is nil for projects outside any folder.
type Project struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	FolderID    *uint64   `json:"folderId"`
	CreatedByID uint64    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Folder groups projects for dashboard organisation.
type Folder struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	CreatedByID uint64    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Membership represents a row in the `project_users` table.  Role holds
// one of the roles.Project values.  At most one row exists per
// (project, user) pair; the unique key backs the acceptance upsert.
type Membership struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"projectId"`
	UserID    uint64    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a membership joined with the user it belongs to, the shape
// returned by the project members listing.
type Member struct {
	Membership
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}
