package model

import "time"

// Video processing statuses form a closed set.  Rows are status
// placeholders only; no transcoding pipeline consumes them.
const (
	ProcessingPending   = "pending"
	ProcessingRunning   = "processing"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// File represents a row in the `files` table.  Filename is the name the
// uploader chose; StoredName is the random-prefixed name on disk and is
// never exposed.
type File struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Filename        string    `json:"filename"`
	StoredName      string    `json:"-"`
	FileType        string    `json:"fileType"`
	FileSize        int64     `json:"fileSize"`
	ProjectID       uint64    `json:"projectId"`
	UploadedByID    uint64    `json:"uploadedById"`
	Version         int       `json:"version"`
	IsLatestVersion bool      `json:"isLatestVersion"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ShareLink represents a row in the `share_links` table.  A nil
// ExpiresAt means the link never expires.
type ShareLink struct {
	ID          uint64     `json:"id"`
	FileID      uint64     `json:"fileId"`
	Token       string     `json:"token"`
	CreatedByID uint64     `json:"createdById"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Expired reports whether the link is past its optional expiry.
func (s ShareLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// VideoProcessing represents a row in the `video_processing` table.
type VideoProcessing struct {
	ID           uint64    `json:"id"`
	FileID       uint64    `json:"fileId"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
