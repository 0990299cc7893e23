package model

import "time"

// Invitation represents a row in the `invitations` table.  Token is the
// 256-bit hex secret embedded in the emailed accept link; it is unique
// across all invitations ever issued.  Rows survive acceptance with
// IsAccepted set and are removed only by revocation.
type Invitation struct {
	ID          uint64    `json:"id"`
	Email       string    `json:"email"`
	ProjectID   uint64    `json:"projectId"`
	Role        string    `json:"role"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
	IsAccepted  bool      `json:"isAccepted"`
	EmailSent   bool      `json:"emailSent"`
	CreatedByID uint64    `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expired reports whether the invitation is past its validity window.
// The window is half-open: an invitation expires the instant now reaches
// ExpiresAt.
func (i Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
