package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/config"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
)

// PublicHandler serves the anonymous share surface: the read-only view
// behind a share link and the comment box on it.  No authentication;
// the token is the capability and the routes are rate-limited.
type PublicHandler struct {
	Shares   *repository.ShareLinkRepo
	Files    *repository.FileRepo
	Comments *repository.CommentRepo
	Cache    config.ShareCacheConfig
	Redis    *redis.Client
	Logger   *zap.Logger
}

func NewPublicHandler(shares *repository.ShareLinkRepo, files *repository.FileRepo, comments *repository.CommentRepo, cache config.ShareCacheConfig, rdb *redis.Client, logger *zap.Logger) *PublicHandler {
	if shares == nil || files == nil || comments == nil || logger == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Shares: shares, Files: files, Comments: comments, Cache: cache, Redis: rdb, Logger: logger}
}

// sharePayload is the composed share view: file metadata plus both
// comment streams.
type sharePayload struct {
	File           model.File            `json:"file"`
	Comments       []model.Comment       `json:"comments"`
	PublicComments []model.PublicComment `json:"publicComments"`
}

// ShareView renders the view behind a share link.  Responses are
// cached in Redis for a short TTL, clamped to the link's remaining
// life; without Redis every request composes from the database.
func (h *PublicHandler) ShareView(c echo.Context) error {
	tok := strings.TrimSpace(c.Param("token"))
	if tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if blob, ok := h.cacheGet(c, tok); ok {
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSONBlob(http.StatusOK, blob)
	}

	link, err := h.Shares.GetByToken(ctx, tok)
	if err != nil {
		return domainError(c, err)
	}
	if link.Expired(time.Now().UTC()) {
		return c.JSON(http.StatusGone, echo.Map{"error": "share link expired"})
	}

	f, err := h.Files.GetByID(ctx, link.FileID)
	if err != nil {
		return domainError(c, err)
	}
	comments, err := h.Comments.ListForFile(ctx, f.ID)
	if err != nil {
		return domainError(c, err)
	}
	public, err := h.Comments.ListPublicForFile(ctx, f.ID)
	if err != nil {
		return domainError(c, err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	if public == nil {
		public = []model.PublicComment{}
	}

	blob, err := json.Marshal(sharePayload{File: f, Comments: comments, PublicComments: public})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode failed"})
	}
	h.cacheSet(c, tok, blob, link.ExpiresAt)
	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSONBlob(http.StatusOK, blob)
}

type publicCommentReq struct {
	DisplayName string   `json:"displayName"`
	Content     string   `json:"content"`
	Timestamp   *float64 `json:"timestamp"`
}

// PostComment stores an anonymous comment through a live share link.
func (h *PublicHandler) PostComment(c echo.Context) error {
	tok := strings.TrimSpace(c.Param("token"))
	if tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	var req publicCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Content = strings.TrimSpace(req.Content)
	if n := utf8.RuneCountInString(req.DisplayName); n < model.PublicDisplayNameMin || n > model.PublicDisplayNameMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "displayName must be 2-40 characters"})
	}
	if n := utf8.RuneCountInString(req.Content); n < 1 || n > model.PublicContentMax {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content must be 1-1000 characters"})
	}
	if req.Timestamp != nil && *req.Timestamp < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "timestamp must not be negative"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	link, err := h.Shares.GetByToken(ctx, tok)
	if err != nil {
		return domainError(c, err)
	}
	if link.Expired(time.Now().UTC()) {
		return c.JSON(http.StatusGone, echo.Map{"error": "share link expired"})
	}

	pc := model.PublicComment{
		ShareLinkID: link.ID,
		FileID:      link.FileID,
		DisplayName: req.DisplayName,
		Content:     req.Content,
		Timestamp:   req.Timestamp,
	}
	if err := h.Comments.CreatePublic(ctx, &pc); err != nil {
		return domainError(c, err)
	}
	h.cacheDrop(c, tok)
	return c.JSON(http.StatusCreated, pc)
}

func (h *PublicHandler) cacheKey(token string) string {
	return h.Cache.Prefix + ":" + token
}

func (h *PublicHandler) cacheGet(c echo.Context, token string) ([]byte, bool) {
	if !h.Cache.Enabled || h.Redis == nil {
		return nil, false
	}
	blob, err := h.Redis.Get(c.Request().Context(), h.cacheKey(token)).Bytes()
	if err != nil || len(blob) == 0 {
		return nil, false
	}
	return blob, true
}

func (h *PublicHandler) cacheSet(c echo.Context, token string, blob []byte, linkExpiry *time.Time) {
	if !h.Cache.Enabled || h.Redis == nil {
		return
	}
	ttl := h.Cache.TTL
	if linkExpiry != nil {
		if remain := time.Until(*linkExpiry); remain < ttl {
			ttl = remain
		}
	}
	if ttl <= 0 {
		return
	}
	if err := h.Redis.SetEx(c.Request().Context(), h.cacheKey(token), blob, ttl).Err(); err != nil {
		h.Logger.Debug("share cache set failed", zap.Error(err))
	}
}

func (h *PublicHandler) cacheDrop(c echo.Context, token string) {
	if !h.Cache.Enabled || h.Redis == nil {
		return
	}
	if err := h.Redis.Del(c.Request().Context(), h.cacheKey(token)).Err(); err != nil {
		h.Logger.Debug("share cache drop failed", zap.Error(err))
	}
}
