package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/testsupport"
)

func TestUserUpdateTheme(t *testing.T) {
	e := newEnv(t)
	alice := testsupport.CreateUser(t, e.db, "alice", "editor")

	rec := e.call(e.usersH.UpdateTheme, jsonReq(http.MethodPatch, map[string]any{"themePreference": "Dark"}), &alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("update theme failed: %d (%s)", rec.Code, rec.Body.String())
	}
	var u model.User
	decodeJSON(t, rec, &u)
	if u.ThemePreference != model.ThemeDark {
		t.Fatalf("expected dark, got %q", u.ThemePreference)
	}

	rec = e.call(e.usersH.UpdateTheme, jsonReq(http.MethodPatch, map[string]any{"themePreference": "solarized"}), &alice)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown theme, got %d", rec.Code)
	}
}

func TestUserUpdateRole(t *testing.T) {
	e := newEnv(t)
	testsupport.CreateUser(t, e.db, "root", "admin")
	bob := testsupport.CreateUser(t, e.db, "bob", "viewer")

	rec := e.call(e.usersH.UpdateRole, jsonReq(http.MethodPatch, map[string]any{"role": "editor"}), nil, "id", fmt.Sprint(bob.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("update role failed: %d (%s)", rec.Code, rec.Body.String())
	}
	var u model.User
	decodeJSON(t, rec, &u)
	if u.Role != "editor" {
		t.Fatalf("expected editor, got %q", u.Role)
	}

	rec = e.call(e.usersH.UpdateRole, jsonReq(http.MethodPatch, map[string]any{"role": "owner"}), nil, "id", fmt.Sprint(bob.ID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
	rec = e.call(e.usersH.UpdateRole, jsonReq(http.MethodPatch, map[string]any{"role": "viewer"}), nil, "id", "9999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}

func TestUserList(t *testing.T) {
	e := newEnv(t)
	testsupport.CreateUser(t, e.db, "alice", "admin")
	testsupport.CreateUser(t, e.db, "bob", "viewer")

	rec := e.call(e.usersH.List, jsonReq(http.MethodGet, nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}
	var resp struct {
		Items []model.User `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Items))
	}
	// Password hashes stay server-side.
	if body := rec.Body.String(); strings.Contains(body, "not-a-real-hash") {
		t.Fatalf("hash leaked in response: %s", body)
	}
}

func TestGlobalActivityFeed(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)
	file := testsupport.CreateFile(t, e.db, project.ID, owner.ID, "cut01.mp4")
	rec := e.call(e.commentsH.Post, jsonReq(http.MethodPost, map[string]any{"content": "hi"}), &member, "id", fmt.Sprint(file.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment failed: %d", rec.Code)
	}

	rec = e.call(e.activityH.GlobalFeed, jsonReq(http.MethodGet, nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feed failed: %d", rec.Code)
	}
	var resp struct {
		Items []model.ActivityEntry `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 1 || resp.Items[0].Action != model.ActivityCreateComment {
		t.Fatalf("unexpected feed: %+v", resp.Items)
	}

	// limit must be a positive integer when present.
	for _, limit := range []string{"0", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/?limit="+limit, nil)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := e.call(e.activityH.GlobalFeed, req, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit %q: expected 400, got %d", limit, rec.Code)
		}
	}
}

func TestFolderCreateAndList(t *testing.T) {
	e := newEnv(t)
	alice := testsupport.CreateUser(t, e.db, "alice", "editor")

	rec := e.call(e.folders.Create, jsonReq(http.MethodPost, map[string]any{"name": "  Q3 Campaigns  "}), &alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d (%s)", rec.Code, rec.Body.String())
	}
	var f model.Folder
	decodeJSON(t, rec, &f)
	if f.Name != "Q3 Campaigns" || f.CreatedByID != alice.ID {
		t.Fatalf("unexpected folder: %+v", f)
	}

	rec = e.call(e.folders.Create, jsonReq(http.MethodPost, map[string]any{"name": ""}), &alice)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rec.Code)
	}

	testsupport.CreateFolder(t, e.db, alice.ID, "Archive")
	rec = e.call(e.folders.List, jsonReq(http.MethodGet, nil), &alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}
	var resp struct {
		Items []model.Folder `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 2 || resp.Items[0].Name != "Archive" {
		t.Fatalf("expected name order, got %+v", resp.Items)
	}
}
