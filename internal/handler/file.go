package handler

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/config"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/roles"
	"github.com/tbnobed/obview/internal/token"
)

// allowedExtensions is the closed set of uploadable types: review media
// plus the document formats producers attach alongside cuts.
var allowedExtensions = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "wmv": true, "flv": true,
	"webm": true, "mkv": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true,
}

// videoExtensions marks the uploads that get a processing status row.
var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "wmv": true, "flv": true,
	"webm": true, "mkv": true,
}

// FileHandler serves uploads, metadata, content download, deletion,
// processing status and share-link creation.
type FileHandler struct {
	Cfg        config.Config
	DB         *sql.DB
	Files      *repository.FileRepo
	Processing *repository.ProcessingRepo
	Shares     *repository.ShareLinkRepo
	Issuer     token.Issuer
	Access     *Access
	Recorder   *activity.Recorder
	Logger     *zap.Logger
}

func NewFileHandler(cfg config.Config, db *sql.DB, files *repository.FileRepo, processing *repository.ProcessingRepo, shares *repository.ShareLinkRepo, issuer token.Issuer, access *Access, rec *activity.Recorder, logger *zap.Logger) *FileHandler {
	if db == nil || files == nil || processing == nil || shares == nil || access == nil || rec == nil || logger == nil {
		panic("nil dependency passed to NewFileHandler")
	}
	return &FileHandler{Cfg: cfg, DB: db, Files: files, Processing: processing, Shares: shares, Issuer: issuer, Access: access, Recorder: rec, Logger: logger}
}

// Upload stores a multipart upload under a random-prefixed name and
// creates the file row, the pending processing row for videos and the
// activity entry in one transaction.  The disk write happens first; a
// failed transaction removes the orphan.
func (h *FileHandler) Upload(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	if cl := c.Request().ContentLength; cl > h.Cfg.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > h.Cfg.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !allowedExtensions[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file type not allowed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionUploadFile); err != nil {
		return domainError(c, err)
	}

	filename := sanitizeFilename(fh.Filename)
	storedName := uuid.New().String() + "_" + filename
	path := filepath.Join(h.Cfg.UploadDir, storedName)
	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store file failed"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
	}
	defer src.Close()
	size, err := writeUpload(path, src)
	if err != nil {
		h.Logger.Error("write upload failed", zap.String("path", path), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store file failed"})
	}

	fileType := fh.Header.Get("Content-Type")
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = filename
	}
	f := model.File{
		Name:         name,
		Description:  strings.TrimSpace(c.FormValue("description")),
		Filename:     filename,
		StoredName:   storedName,
		FileType:     fileType,
		FileSize:     size,
		ProjectID:    projectID,
		UploadedByID: userID,
	}

	entry, err := h.createUpload(c, &f, ext)
	if err != nil {
		_ = os.Remove(path)
		return domainError(c, err)
	}
	h.Recorder.Publish(ctx, entry)
	return c.JSON(http.StatusCreated, f)
}

func (h *FileHandler) createUpload(c echo.Context, f *model.File, ext string) (*model.ActivityEntry, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Files.CreateTx(ctx, tx, f); err != nil {
		return nil, err
	}
	if videoExtensions[ext] {
		if err := h.Processing.CreateTx(ctx, tx, f.ID); err != nil {
			return nil, err
		}
	}
	entry := &model.ActivityEntry{
		Action:     model.ActivityUploadFile,
		EntityType: model.EntityFile,
		EntityID:   f.ID,
		UserID:     f.UploadedByID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"filename": f.Filename},
	}
	h.Recorder.RecordTx(ctx, tx, entry)

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return entry, nil
}

// List returns a project's files, newest first.
func (h *FileHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.Require(ctx, projectID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	files, err := h.Files.ListForProject(ctx, projectID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": files})
}

// Get returns file metadata.
func (h *FileHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionViewProject)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// Download streams the stored content inline under the uploader's
// original filename.
func (h *FileHandler) Download(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionViewProject)
	if err != nil {
		return domainError(c, err)
	}
	path := filepath.Join(h.Cfg.UploadDir, f.StoredName)
	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "file content missing"})
	}
	return c.Inline(path, f.Filename)
}

// Delete removes the file row with everything hanging off it, then
// best-effort removes the content from disk.
func (h *FileHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionDeleteFile)
	if err != nil {
		return domainError(c, err)
	}
	if err := h.Files.Delete(ctx, fileID); err != nil {
		return domainError(c, err)
	}
	path := filepath.Join(h.Cfg.UploadDir, f.StoredName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.Logger.Warn("remove file content failed", zap.String("path", path), zap.Error(err))
	}

	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityDeleteFile,
		EntityType: model.EntityFile,
		EntityID:   fileID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"filename": f.Filename},
	})
	return c.NoContent(http.StatusNoContent)
}

// ProcessingStatus returns the video processing row for a file.  Files
// uploaded without one, every non-video type, read as 404.
func (h *FileHandler) ProcessingStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionViewProject); err != nil {
		return domainError(c, err)
	}
	vp, err := h.Processing.GetByFileID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no processing status for file"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, vp)
}

type createShareReq struct {
	ExpiresInDays int `json:"expiresInDays"`
}

// CreateShare mints a public link for a file.  A zero or absent
// expiresInDays makes the link permanent until the file goes away.
func (h *FileHandler) CreateShare(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}
	var req createShareReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ExpiresInDays < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiresInDays must not be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	f, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionShareFile)
	if err != nil {
		return domainError(c, err)
	}

	link := model.ShareLink{FileID: f.ID, CreatedByID: userID}
	if req.ExpiresInDays > 0 {
		at := time.Now().UTC().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		link.ExpiresAt = &at
	}
	tok, err := h.Issuer.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	link.Token = tok.Raw
	if err := h.Shares.Create(ctx, &link); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return domainError(c, err)
		}
		if tok, err = h.Issuer.New(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
		}
		link.Token = tok.Raw
		if err := h.Shares.Create(ctx, &link); err != nil {
			return domainError(c, err)
		}
	}

	h.Recorder.Record(ctx, &model.ActivityEntry{
		Action:     model.ActivityCreateShareLink,
		EntityType: model.EntityShareLink,
		EntityID:   link.ID,
		UserID:     userID,
		ProjectID:  &f.ProjectID,
		Metadata:   map[string]any{"fileId": f.ID},
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"shareLink": link,
		"url":       strings.TrimRight(h.Cfg.BaseURL, "/") + "/public/" + link.Token,
	})
}

// ListShares returns the links minted for a file.
func (h *FileHandler) ListShares(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fileID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, _, err := h.Access.RequireFile(ctx, fileID, userID, roles.ActionShareFile); err != nil {
		return domainError(c, err)
	}
	links, err := h.Shares.ListForFile(ctx, fileID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": links})
}

// writeUpload copies the upload to path and reports the byte count.  A
// partial write leaves no file behind.
func writeUpload(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}

// sanitizeFilename flattens an uploaded filename to a safe basename:
// path separators stripped, anything outside [A-Za-z0-9._-] replaced
// with an underscore.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "upload"
	}
	return out
}
