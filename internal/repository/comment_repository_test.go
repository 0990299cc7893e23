package repository_test

import (
	"context"
	"testing"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
	"github.com/tbnobed/obview/internal/testsupport"
)

func TestCommentCreateFillsAuthor(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")

	repo := repository.NewCommentRepo(db)
	ts := 12.5
	c := model.Comment{FileID: file.ID, UserID: owner.ID, Content: "color looks off here", Timestamp: &ts}
	if err := repo.Create(context.Background(), &c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if c.AuthorName != "owner" {
		t.Fatalf("expected author name filled, got %q", c.AuthorName)
	}
	if c.ParentID != nil {
		t.Fatalf("expected top-level comment, got parent %d", *c.ParentID)
	}
	if c.Timestamp == nil || *c.Timestamp != 12.5 {
		t.Fatalf("expected timestamp 12.5 back, got %v", c.Timestamp)
	}
	if c.IsResolved {
		t.Fatal("new comments must start unresolved")
	}
}

func TestCommentListOrderedByTimestamp(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")

	repo := repository.NewCommentRepo(db)
	ctx := context.Background()

	late, early := 45.0, 3.25
	general := model.Comment{FileID: file.ID, UserID: owner.ID, Content: "overall pacing feels slow"}
	atLate := model.Comment{FileID: file.ID, UserID: owner.ID, Content: "typo in the credits", Timestamp: &late}
	atEarly := model.Comment{FileID: file.ID, UserID: owner.ID, Content: "audio pop", Timestamp: &early}
	for _, c := range []*model.Comment{&atLate, &general, &atEarly} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := repo.ListForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("ListForFile failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(list))
	}
	// Untimestamped comments first, then ascending media position.
	if list[0].ID != general.ID || list[1].ID != atEarly.ID || list[2].ID != atLate.ID {
		t.Fatalf("unexpected order: %d, %d, %d", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestCommentListAttachesReactions(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	bob := testsupport.CreateUser(t, db, "bob", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")
	comment := testsupport.CreateComment(t, db, file.ID, owner.ID, "love this transition")
	other := testsupport.CreateComment(t, db, file.ID, owner.ID, "needs work")

	reactions := repository.NewReactionRepo(db)
	ctx := context.Background()
	for _, r := range []struct {
		user  uint64
		emoji string
	}{
		{owner.ID, "👍"},
		{bob.ID, "👍"},
		{bob.ID, "🎉"},
	} {
		if _, err := reactions.Toggle(ctx, comment.ID, r.user, r.emoji); err != nil {
			t.Fatalf("Toggle failed: %v", err)
		}
	}

	list, err := repository.NewCommentRepo(db).ListForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("ListForFile failed: %v", err)
	}
	byID := map[uint64]model.Comment{}
	for _, c := range list {
		byID[c.ID] = c
	}
	if got := len(byID[comment.ID].Reactions); got != 3 {
		t.Fatalf("expected 3 reactions attached, got %d", got)
	}
	if got := len(byID[other.ID].Reactions); got != 0 {
		t.Fatalf("expected no reactions on other comment, got %d", got)
	}
}

func TestReactionToggleAddsThenRemoves(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")
	comment := testsupport.CreateComment(t, db, file.ID, owner.ID, "love this transition")

	repo := repository.NewReactionRepo(db)
	ctx := context.Background()

	active, err := repo.Toggle(ctx, comment.ID, owner.ID, "👍")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !active {
		t.Fatal("first toggle should add the reaction")
	}
	active, err = repo.Toggle(ctx, comment.ID, owner.ID, "👍")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if active {
		t.Fatal("second toggle should remove the reaction")
	}
	if n := testsupport.Count(t, db, "SELECT COUNT(*) FROM comment_reactions WHERE comment_id=?", comment.ID); n != 0 {
		t.Fatalf("expected reaction row gone, found %d", n)
	}

	// A different emoji from the same user is a separate reaction.
	if _, err := repo.Toggle(ctx, comment.ID, owner.ID, "👍"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if _, err := repo.Toggle(ctx, comment.ID, owner.ID, "🎉"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if n := testsupport.Count(t, db, "SELECT COUNT(*) FROM comment_reactions WHERE comment_id=?", comment.ID); n != 2 {
		t.Fatalf("expected 2 distinct reactions, found %d", n)
	}
}

func TestCommentSetResolved(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")
	comment := testsupport.CreateComment(t, db, file.ID, owner.ID, "audio pop")

	repo := repository.NewCommentRepo(db)
	ctx := context.Background()
	if err := repo.SetResolved(ctx, comment.ID, true); err != nil {
		t.Fatalf("SetResolved failed: %v", err)
	}
	got, err := repo.GetByID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsResolved {
		t.Fatal("expected comment resolved")
	}
	if err := repo.SetResolved(ctx, comment.ID, false); err != nil {
		t.Fatalf("SetResolved failed: %v", err)
	}
	got, err = repo.GetByID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsResolved {
		t.Fatal("expected comment reopened")
	}
}

func TestCommentDeleteCascades(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	bob := testsupport.CreateUser(t, db, "bob", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")
	parent := testsupport.CreateComment(t, db, file.ID, owner.ID, "needs a lower third")

	repo := repository.NewCommentRepo(db)
	ctx := context.Background()
	reply := model.Comment{FileID: file.ID, UserID: bob.ID, ParentID: &parent.ID, Content: "on it"}
	if err := repo.Create(ctx, &reply); err != nil {
		t.Fatalf("Create reply failed: %v", err)
	}
	if _, err := repository.NewReactionRepo(db).Toggle(ctx, parent.ID, bob.ID, "👍"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	if err := repo.Delete(ctx, parent.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n := testsupport.Count(t, db, "SELECT COUNT(*) FROM comments WHERE file_id=?", file.ID); n != 0 {
		t.Fatalf("expected replies removed with the parent, found %d rows", n)
	}
	if n := testsupport.Count(t, db, "SELECT COUNT(*) FROM comment_reactions WHERE comment_id=?", parent.ID); n != 0 {
		t.Fatalf("expected reactions removed with the comment, found %d rows", n)
	}
	if err := repo.Delete(ctx, parent.ID); err != repository.ErrCommentNotFound {
		t.Fatalf("expected ErrCommentNotFound on double delete, got %v", err)
	}
}

func TestPublicCommentRoundTrip(t *testing.T) {
	db := testsupport.OpenDB(t)
	owner := testsupport.CreateUser(t, db, "owner", string(roles.GlobalEditor))
	project := testsupport.CreateProject(t, db, owner.ID, "Launch Teaser")
	file := testsupport.CreateFile(t, db, project.ID, owner.ID, "cut01.mp4")
	link := testsupport.CreateShareLink(t, db, file.ID, owner.ID, nil)

	repo := repository.NewCommentRepo(db)
	ctx := context.Background()

	ts := 7.0
	first := model.PublicComment{ShareLinkID: link.ID, FileID: file.ID, DisplayName: "Client A", Content: "looks great", Timestamp: &ts}
	second := model.PublicComment{ShareLinkID: link.ID, FileID: file.ID, DisplayName: "Client B", Content: "logo too small"}
	for _, pc := range []*model.PublicComment{&first, &second} {
		if err := repo.CreatePublic(ctx, pc); err != nil {
			t.Fatalf("CreatePublic failed: %v", err)
		}
		if pc.ID == 0 {
			t.Fatal("expected assigned id")
		}
	}

	list, err := repo.ListPublicForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("ListPublicForFile failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 public comments, got %d", len(list))
	}
	// The untimestamped comment sorts first.
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %d, %d", list[0].ID, list[1].ID)
	}
	if list[0].DisplayName != "Client B" {
		t.Fatalf("expected display name persisted, got %q", list[0].DisplayName)
	}
	if list[1].Timestamp == nil || *list[1].Timestamp != 7.0 {
		t.Fatalf("expected timestamp 7.0, got %v", list[1].Timestamp)
	}
}
