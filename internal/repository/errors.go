// Package repository implements the persistence layer on database/sql.
// Sentinel errors declared here let handlers map failure scenarios onto
// HTTP statuses without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they have no access to.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting state, including upsert retries that keep failing.
// Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// Per-entity not-found sentinels.  Handlers translate these into 404.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrFolderNotFound     = errors.New("folder not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrShareLinkNotFound  = errors.New("share link not found")
	ErrCommentNotFound    = errors.New("comment not found")
)

// Uniqueness violations surfaced to callers.
var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already registered")
)

// Invitation lifecycle errors.  ErrInvitationExpired maps to 410 and
// ErrInvitationAccepted to 409.
var (
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrInvitationAccepted = errors.New("invitation already accepted")
)
