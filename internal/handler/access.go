package handler

import (
	"context"
	"errors"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
)

// Access resolves a caller's standing relative to a project.  Every
// project-scoped authorization decision funnels through it and the
// roles capability matrix; handlers never compare role strings.
type Access struct {
	Users    *repository.UserRepo
	Projects *repository.ProjectRepo
	Members  *repository.MembershipRepo
	Files    *repository.FileRepo
}

func NewAccess(users *repository.UserRepo, projects *repository.ProjectRepo, members *repository.MembershipRepo, files *repository.FileRepo) *Access {
	if users == nil || projects == nil || members == nil || files == nil {
		panic("nil repository passed to NewAccess")
	}
	return &Access{Users: users, Projects: projects, Members: members, Files: files}
}

// Resolve loads the project and the caller's standing on it.  A caller
// with no membership row resolves with IsMember false, which CanPerform
// treats as an outsider unless they created the project or hold the
// global admin role.
func (a *Access) Resolve(ctx context.Context, projectID, userID uint64) (model.Project, roles.Membership, error) {
	project, err := a.Projects.GetByID(ctx, projectID)
	if err != nil {
		return model.Project{}, roles.Membership{}, err
	}
	user, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return model.Project{}, roles.Membership{}, err
	}

	m := roles.Membership{
		Global:    roles.Global(user.Role),
		IsCreator: project.CreatedByID == userID,
	}
	row, err := a.Members.GetByProjectAndUser(ctx, projectID, userID)
	switch {
	case err == nil:
		m.IsMember = true
		m.Project = roles.Project(row.Role)
	case errors.Is(err, repository.ErrMembershipNotFound):
		// outsider or creator without a membership row
	default:
		return model.Project{}, roles.Membership{}, err
	}
	return project, m, nil
}

// Require resolves the caller's standing and checks one capability,
// returning ErrForbidden when the check fails.
func (a *Access) Require(ctx context.Context, projectID, userID uint64, action roles.Action) (model.Project, roles.Membership, error) {
	project, m, err := a.Resolve(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, roles.Membership{}, err
	}
	if !roles.CanPerform(m, action) {
		return model.Project{}, roles.Membership{}, repository.ErrForbidden
	}
	return project, m, nil
}

// RequireFile loads a file and checks the capability against its
// project.  File-scoped routes all authorize through here.
func (a *Access) RequireFile(ctx context.Context, fileID, userID uint64, action roles.Action) (model.File, roles.Membership, error) {
	f, err := a.Files.GetByID(ctx, fileID)
	if err != nil {
		return model.File{}, roles.Membership{}, err
	}
	_, m, err := a.Require(ctx, f.ProjectID, userID, action)
	if err != nil {
		return model.File{}, roles.Membership{}, err
	}
	return f, m, nil
}
