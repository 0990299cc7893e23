package testsupport

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/token"
)

// CreateUser inserts a user with a placeholder password hash.  The
// email is derived from the username.
func CreateUser(t testing.TB, db *sql.DB, username, role string) model.User {
	t.Helper()

	u := model.User{
		Username:     username,
		Email:        username + "@example.com",
		Name:         username,
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	if err := repository.NewUserRepo(db).Create(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateProject inserts a project owned by ownerID.
func CreateProject(t testing.TB, db *sql.DB, ownerID uint64, name string) model.Project {
	t.Helper()

	p := model.Project{Name: name, CreatedByID: ownerID}
	if err := repository.NewProjectRepo(db).Create(context.Background(), &p); err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

// AddMember upserts a membership row in its own transaction.
func AddMember(t testing.TB, db *sql.DB, projectID, userID uint64, role string) model.Membership {
	t.Helper()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	m, err := repository.NewMembershipRepo(db, "sqlite").UpsertTx(ctx, tx, projectID, userID, role)
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("upsert membership: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit membership: %v", err)
	}
	return m
}

// CreateFolder inserts a project folder.
func CreateFolder(t testing.TB, db *sql.DB, creatorID uint64, name string) model.Folder {
	t.Helper()

	f := model.Folder{Name: name, CreatedByID: creatorID}
	if err := repository.NewFolderRepo(db).Create(context.Background(), &f); err != nil {
		t.Fatalf("create folder %s: %v", name, err)
	}
	return f
}

// CreateFile inserts a file row in its own transaction.  No content is
// written to disk; tests that download seed the upload directory
// themselves.
func CreateFile(t testing.TB, db *sql.DB, projectID, uploaderID uint64, name string) model.File {
	t.Helper()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	f := model.File{
		Name:         name,
		Filename:     name,
		StoredName:   "stored_" + name,
		FileType:     "video/mp4",
		FileSize:     4,
		ProjectID:    projectID,
		UploadedByID: uploaderID,
	}
	if err := repository.NewFileRepo(db).CreateTx(ctx, tx, &f); err != nil {
		_ = tx.Rollback()
		t.Fatalf("create file %s: %v", name, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit file: %v", err)
	}
	return f
}

// CreateInvitation inserts an invitation with a fresh random token and
// the given expiry.
func CreateInvitation(t testing.TB, db *sql.DB, email string, projectID uint64, role string, issuerID uint64, expiresAt time.Time) model.Invitation {
	t.Helper()

	tok, err := token.Issuer{}.New()
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	inv := model.Invitation{
		Email:       email,
		ProjectID:   projectID,
		Role:        role,
		Token:       tok.Raw,
		ExpiresAt:   expiresAt.UTC().Truncate(time.Second),
		CreatedByID: issuerID,
	}
	if err := repository.NewInvitationRepo(db).Create(context.Background(), &inv); err != nil {
		t.Fatalf("create invitation for %s: %v", email, err)
	}
	return inv
}

// CreateShareLink inserts a share link with a fresh random token.  A
// nil expiresAt makes the link permanent.
func CreateShareLink(t testing.TB, db *sql.DB, fileID, creatorID uint64, expiresAt *time.Time) model.ShareLink {
	t.Helper()

	tok, err := token.Issuer{}.New()
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	link := model.ShareLink{
		FileID:      fileID,
		Token:       tok.Raw,
		CreatedByID: creatorID,
		ExpiresAt:   expiresAt,
	}
	if err := repository.NewShareLinkRepo(db).Create(context.Background(), &link); err != nil {
		t.Fatalf("create share link: %v", err)
	}
	return link
}

// CreateComment inserts an authenticated comment on a file.
func CreateComment(t testing.TB, db *sql.DB, fileID, userID uint64, content string) model.Comment {
	t.Helper()

	c := model.Comment{FileID: fileID, UserID: userID, Content: content}
	if err := repository.NewCommentRepo(db).Create(context.Background(), &c); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}
