// Package roles defines the closed role sets used across the API and the
// capability checks derived from them.  Authorization decisions go through
// CanPerform; handlers never compare role strings directly.
package roles

// Global is an account-wide role stored on the user record.
type Global string

// Project is a per-project role stored on a membership row.
type Project string

const (
	GlobalAdmin  Global = "admin"
	GlobalEditor Global = "editor"
	GlobalViewer Global = "viewer"

	ProjectEditor Project = "editor"
	ProjectViewer Project = "viewer"
)

// ValidGlobal reports whether s names a known account role.
func ValidGlobal(s string) bool {
	switch Global(s) {
	case GlobalAdmin, GlobalEditor, GlobalViewer:
		return true
	}
	return false
}

// ValidProject reports whether s names a known membership role.
func ValidProject(s string) bool {
	switch Project(s) {
	case ProjectEditor, ProjectViewer:
		return true
	}
	return false
}

// Action enumerates the operations guarded by CanPerform.
type Action string

const (
	ActionCreateProject      Action = "create_project"
	ActionViewProject        Action = "view_project"
	ActionEditProject        Action = "edit_project"
	ActionUploadFile         Action = "upload_file"
	ActionDeleteFile         Action = "delete_file"
	ActionShareFile          Action = "share_file"
	ActionComment            Action = "comment"
	ActionResolveComment     Action = "resolve_comment"
	ActionModerateComments   Action = "moderate_comments"
	ActionApprove            Action = "approve"
	ActionInviteMember       Action = "invite_member"
	ActionManageMembers      Action = "manage_members"
	ActionManageUsers        Action = "manage_users"
	ActionViewGlobalActivity Action = "view_global_activity"
)

// Membership is the resolved standing of a user relative to a project.
// Project is only meaningful when IsMember is true.
type Membership struct {
	Global    Global
	Project   Project
	IsCreator bool
	IsMember  bool
}

// CanPerform reports whether the membership allows the action.  Global
// admins pass every check and project creators pass every project-scoped
// check.  Unknown actions and unknown roles always fail.
func CanPerform(m Membership, a Action) bool {
	if m.Global == GlobalAdmin {
		return true
	}
	switch a {
	case ActionCreateProject:
		return m.Global == GlobalEditor
	case ActionManageUsers, ActionViewGlobalActivity:
		return false
	}
	if m.IsCreator {
		return true
	}
	if !m.IsMember {
		return false
	}
	switch a {
	case ActionViewProject, ActionComment, ActionResolveComment, ActionApprove:
		return true
	case ActionEditProject, ActionUploadFile, ActionDeleteFile, ActionShareFile,
		ActionInviteMember, ActionModerateComments:
		return m.Project == ProjectEditor
	}
	return false
}
