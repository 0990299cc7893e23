package model

import "time"

// Activity actions recorded in the audit trail.
const (
	ActivityRegister         = "register"
	ActivityCreateProject    = "create_project"
	ActivityUpdateProject    = "update_project"
	ActivityCreateInvitation = "create_invitation"
	ActivityRevokeInvitation = "revoke_invitation"
	ActivityAcceptInvitation = "accept_invitation"
	ActivityRemoveMember     = "remove_member"
	ActivityUploadFile       = "upload_file"
	ActivityDeleteFile       = "delete_file"
	ActivityCreateShareLink  = "create_share_link"
	ActivityCreateComment    = "create_comment"
	ActivityDeleteComment    = "delete_comment"
	ActivityResolveComment   = "resolve_comment"
	ActivityUnresolveComment = "unresolve_comment"
	ActivityAddReaction      = "add_reaction"
	ActivityRemoveReaction   = "remove_reaction"
	ActivityApprove          = "approve"
	ActivityRequestChanges   = "request_changes"
)

// Entity kinds referenced by activity entries.
const (
	EntityUser       = "user"
	EntityProject    = "project"
	EntityInvitation = "invitation"
	EntityMembership = "membership"
	EntityFile       = "file"
	EntityShareLink  = "share_link"
	EntityComment    = "comment"
	EntityApproval   = "approval"
)

// ActivityEntry represents a row in the `activity_log` table.  The log
// is append-only; rows are never updated or deleted.  ProjectID scopes
// an entry to a project feed and is nil for account-level events.
// Metadata carries small denormalised context for feed rendering.
type ActivityEntry struct {
	ID         uint64         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   uint64         `json:"entityId"`
	UserID     uint64         `json:"userId"`
	ProjectID  *uint64        `json:"projectId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
