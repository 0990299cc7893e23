package handler_test

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/testsupport"
)

func (e *env) storedPath(t *testing.T, fileID uint64) string {
	t.Helper()
	var storedName string
	if err := e.db.QueryRow("SELECT stored_name FROM files WHERE id = ?", fileID).Scan(&storedName); err != nil {
		t.Fatalf("lookup stored name failed: %v", err)
	}
	return filepath.Join(e.cfg.UploadDir, storedName)
}

func (e *env) upload(t *testing.T, u *model.User, projectID uint64, filename string, content []byte) model.File {
	t.Helper()
	rec := e.call(e.files.Upload, multipartReq(t, filename, content, nil), u, "id", fmt.Sprint(projectID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload %q failed: %d (%s)", filename, rec.Code, rec.Body.String())
	}
	var f model.File
	decodeJSON(t, rec, &f)
	return f
}

func TestFileUploadVideo(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)

	content := []byte("not really an mp4 but close enough")
	f := e.upload(t, &member, project.ID, "teaser final.mp4", content)

	if f.Filename != "teaser_final.mp4" {
		t.Fatalf("expected sanitized filename, got %q", f.Filename)
	}
	if f.Name != "teaser_final.mp4" || f.Version != 1 || !f.IsLatestVersion {
		t.Fatalf("unexpected file row: %+v", f)
	}
	if f.FileSize != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), f.FileSize)
	}

	got, err := os.ReadFile(e.storedPath(t, f.ID))
	if err != nil {
		t.Fatalf("read stored content failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("stored content differs from upload")
	}

	// Videos start a processing row in the same transaction.
	rec := e.call(e.files.ProcessingStatus, jsonReq(http.MethodGet, nil), &member, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("processing status failed: %d", rec.Code)
	}
	var vp model.VideoProcessing
	decodeJSON(t, rec, &vp)
	if vp.Status != model.ProcessingPending {
		t.Fatalf("expected pending, got %q", vp.Status)
	}

	if n := testsupport.Count(t, e.db, "SELECT COUNT(*) FROM activity_log WHERE action='upload_file'"); n != 1 {
		t.Fatalf("expected 1 upload activity, got %d", n)
	}
}

func TestFileUploadDocumentSkipsProcessing(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)

	f := e.upload(t, &member, project.ID, "notes.pdf", []byte("%PDF-1.4"))
	rec := e.call(e.files.ProcessingStatus, jsonReq(http.MethodGet, nil), &member, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-video, got %d", rec.Code)
	}
}

func TestFileUploadRejectsType(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)

	rec := e.call(e.files.Upload, multipartReq(t, "setup.exe", []byte("MZ"), nil), &member, "id", fmt.Sprint(project.ID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for .exe, got %d", rec.Code)
	}
	if n := testsupport.Count(t, e.db, "SELECT COUNT(*) FROM files"); n != 0 {
		t.Fatalf("expected no file rows, got %d", n)
	}
}

func TestFileUploadTooLarge(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)
	e.files.Cfg.MaxUploadBytes = 16

	rec := e.call(e.files.Upload, multipartReq(t, "big.mp4", bytes.Repeat([]byte("x"), 64), nil), &member, "id", fmt.Sprint(project.ID))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestFileUploadRequiresEditor(t *testing.T) {
	e := newEnv(t)
	_, _, project := e.seedProject(t)
	viewer := testsupport.CreateUser(t, e.db, "viewer", "viewer")
	testsupport.AddMember(t, e.db, project.ID, viewer.ID, "viewer")

	rec := e.call(e.files.Upload, multipartReq(t, "cut.mp4", []byte("x"), nil), &viewer, "id", fmt.Sprint(project.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", rec.Code)
	}
}

func TestFileUploadNamedByForm(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)

	rec := e.call(e.files.Upload, multipartReq(t, "v3_export.mov", []byte("x"), map[string]string{
		"name":        "Director's cut",
		"description": "third pass",
	}), &member, "id", fmt.Sprint(project.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d (%s)", rec.Code, rec.Body.String())
	}
	var f model.File
	decodeJSON(t, rec, &f)
	if f.Name != "Director's cut" || f.Description != "third pass" {
		t.Fatalf("form fields not applied: %+v", f)
	}
}

func TestFileGetAndDownload(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)

	content := []byte("frame data")
	f := e.upload(t, &member, project.ID, "review.mp4", content)

	rec := e.call(e.files.Get, jsonReq(http.MethodGet, nil), &owner, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("get failed: %d", rec.Code)
	}
	var got model.File
	decodeJSON(t, rec, &got)
	if got.ID != f.ID || got.ProjectID != project.ID {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	rec = e.call(e.files.Download, jsonReq(http.MethodGet, nil), &owner, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("download failed: %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatal("downloaded content differs from upload")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "review.mp4") {
		t.Fatalf("expected original filename in disposition, got %q", cd)
	}
}

func TestFileListNewestFirst(t *testing.T) {
	e := newEnv(t)
	_, member, project := e.seedProject(t)

	e.upload(t, &member, project.ID, "first.mp4", []byte("a"))
	second := e.upload(t, &member, project.ID, "second.mp4", []byte("b"))

	rec := e.call(e.files.List, jsonReq(http.MethodGet, nil), &member, "id", fmt.Sprint(project.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}
	var resp struct {
		Items []model.File `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 2 || resp.Items[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", resp.Items)
	}
}

func TestFileDeleteRemovesEverything(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)

	f := e.upload(t, &member, project.ID, "cut.mp4", []byte("x"))
	path := e.storedPath(t, f.ID)
	testsupport.CreateComment(t, e.db, f.ID, owner.ID, "note")
	rec := e.call(e.files.CreateShare, jsonReq(http.MethodPost, map[string]any{}), &member, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("share failed: %d", rec.Code)
	}

	viewer := testsupport.CreateUser(t, e.db, "viewer", "viewer")
	testsupport.AddMember(t, e.db, project.ID, viewer.ID, "viewer")
	rec = e.call(e.files.Delete, jsonReq(http.MethodDelete, nil), &viewer, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", rec.Code)
	}

	rec = e.call(e.files.Delete, jsonReq(http.MethodDelete, nil), &member, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d (%s)", rec.Code, rec.Body.String())
	}

	for _, table := range []string{"files", "comments", "share_links", "video_processing"} {
		if n := testsupport.Count(t, e.db, "SELECT COUNT(*) FROM "+table); n != 0 {
			t.Fatalf("expected %s emptied, got %d rows", table, n)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected stored content removed, got %v", err)
	}

	rec = e.call(e.files.Get, jsonReq(http.MethodGet, nil), &member, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestFileShareLinkLifecycle(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)
	f := e.upload(t, &member, project.ID, "cut.mp4", []byte("x"))

	share := func(days int) (int, model.ShareLink, string) {
		rec := e.call(e.files.CreateShare, jsonReq(http.MethodPost, map[string]any{"expiresInDays": days}), &member, "id", fmt.Sprint(f.ID))
		var resp struct {
			ShareLink model.ShareLink `json:"shareLink"`
			URL       string          `json:"url"`
		}
		if rec.Code == http.StatusCreated {
			decodeJSON(t, rec, &resp)
		}
		return rec.Code, resp.ShareLink, resp.URL
	}

	code, link, url := share(7)
	if code != http.StatusCreated {
		t.Fatalf("share failed: %d", code)
	}
	if len(link.Token) != 64 {
		t.Fatalf("expected 64-char token, got %q", link.Token)
	}
	if url != "http://obview.test/public/"+link.Token {
		t.Fatalf("unexpected url %q", url)
	}
	if link.ExpiresAt == nil {
		t.Fatal("expected expiry set")
	}
	until := time.Until(*link.ExpiresAt)
	if until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Fatalf("expiry not ~7 days out: %v", link.ExpiresAt)
	}

	code, permanent, _ := share(0)
	if code != http.StatusCreated || permanent.ExpiresAt != nil {
		t.Fatalf("expected permanent link, got %d %+v", code, permanent)
	}

	if code, _, _ := share(-1); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative expiry, got %d", code)
	}

	rec := e.call(e.files.ListShares, jsonReq(http.MethodGet, nil), &owner, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("list shares failed: %d", rec.Code)
	}
	var resp struct {
		Items []model.ShareLink `json:"items"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 links, got %d", len(resp.Items))
	}

	viewer := testsupport.CreateUser(t, e.db, "viewer", "viewer")
	testsupport.AddMember(t, e.db, project.ID, viewer.ID, "viewer")
	rec = e.call(e.files.CreateShare, jsonReq(http.MethodPost, map[string]any{}), &viewer, "id", fmt.Sprint(f.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", rec.Code)
	}
}
