package model

import "time"

// Bounds enforced on anonymous share-link comments.  Authenticated
// comments carry no upper length cap.
const (
	PublicDisplayNameMin = 2
	PublicDisplayNameMax = 40
	PublicContentMax     = 1000
)

// Comment represents a row in the `comments` table.  ParentID links a
// reply to another comment on the same file; Timestamp anchors the
// comment to a media position in seconds.  AuthorName and Reactions are
// filled by listing queries and absent on bare rows.
type Comment struct {
	ID         uint64     `json:"id"`
	FileID     uint64     `json:"fileId"`
	UserID     uint64     `json:"userId"`
	ParentID   *uint64    `json:"parentId"`
	Content    string     `json:"content"`
	Timestamp  *float64   `json:"timestamp"`
	IsResolved bool       `json:"isResolved"`
	CreatedAt  time.Time  `json:"createdAt"`
	AuthorName string     `json:"authorName,omitempty"`
	Reactions  []Reaction `json:"reactions,omitempty"`
}

// Reaction represents a row in the `comment_reactions` table.  One row
// per (comment, user, emoji); posting the same emoji again removes it.
type Reaction struct {
	ID        uint64    `json:"id"`
	CommentID uint64    `json:"commentId"`
	UserID    uint64    `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicComment represents a row in the `public_comments` table, the
// anonymous comments posted through a share link.
type PublicComment struct {
	ID          uint64    `json:"id"`
	ShareLinkID uint64    `json:"shareLinkId"`
	FileID      uint64    `json:"fileId"`
	DisplayName string    `json:"displayName"`
	Content     string    `json:"content"`
	Timestamp   *float64  `json:"timestamp"`
	CreatedAt   time.Time `json:"createdAt"`
}
