package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/config"
	"github.com/tbnobed/obview/internal/events"
	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/mailer"
	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/testsupport"
	"github.com/tbnobed/obview/internal/token"
)

// captureSender records outbound mail instead of delivering it.  With
// fail set every send errors like a provider outage.
type captureSender struct {
	sent []mailer.Message
	fail bool
}

func (s *captureSender) Send(ctx context.Context, msg mailer.Message) error {
	if s.fail {
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

// env wires every handler against one throwaway sqlite database, the
// way main assembles them minus the network listener.
type env struct {
	t      *testing.T
	db     *sql.DB
	cfg    config.Config
	echo   *echo.Echo
	sender *captureSender

	users      *repository.UserRepo
	tokens     *repository.TokenRepo
	projects   *repository.ProjectRepo
	members    *repository.MembershipRepo
	invitesR   *repository.InvitationRepo
	filesR     *repository.FileRepo
	shares     *repository.ShareLinkRepo
	comments   *repository.CommentRepo
	activityR  *repository.ActivityRepo
	processing *repository.ProcessingRepo

	auth      *handler.AuthHandler
	usersH    *handler.UserHandler
	folders   *handler.FolderHandler
	projectsH *handler.ProjectHandler
	invites   *handler.InviteHandler
	files     *handler.FileHandler
	commentsH *handler.CommentHandler
	approvals *handler.ApprovalHandler
	public    *handler.PublicHandler
	activityH *handler.ActivityHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testsupport.OpenDB(t)
	logger := zap.NewNop()

	cfg := config.Config{
		Env:            "test",
		Port:           "0",
		BaseURL:        "http://obview.test",
		DBDriver:       "sqlite",
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     bcrypt.MinCost,
		InviteTTLDays:  7,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 8 << 20,
		EmailFrom:      "noreply@obview.test",
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	foldersRepo := repository.NewFolderRepo(db)
	projects := repository.NewProjectRepo(db)
	members := repository.NewMembershipRepo(db, "sqlite")
	invites := repository.NewInvitationRepo(db)
	files := repository.NewFileRepo(db)
	processing := repository.NewProcessingRepo(db)
	shares := repository.NewShareLinkRepo(db)
	comments := repository.NewCommentRepo(db)
	reactions := repository.NewReactionRepo(db)
	approvals := repository.NewApprovalRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	rec := activity.NewRecorder(activityRepo, events.NewPublisher("", logger), logger)
	sender := &captureSender{}
	access := handler.NewAccess(users, projects, members, files)
	issuer := token.Issuer{TTL: time.Duration(cfg.InviteTTLDays) * 24 * time.Hour}
	cache := config.ShareCacheConfig{Enabled: false}

	return &env{
		t:      t,
		db:     db,
		cfg:    cfg,
		echo:   echo.New(),
		sender: sender,

		users:      users,
		tokens:     tokens,
		projects:   projects,
		members:    members,
		invitesR:   invites,
		filesR:     files,
		shares:     shares,
		comments:   comments,
		activityR:  activityRepo,
		processing: processing,

		auth:      handler.NewAuthHandler(cfg, users, tokens, rec),
		usersH:    handler.NewUserHandler(users),
		folders:   handler.NewFolderHandler(foldersRepo),
		projectsH: handler.NewProjectHandler(projects, members, foldersRepo, activityRepo, access, rec),
		invites:   handler.NewInviteHandler(cfg, db, issuer, invites, members, access, sender, rec, logger),
		files:     handler.NewFileHandler(cfg, db, files, processing, shares, issuer, access, rec, logger),
		commentsH: handler.NewCommentHandler(comments, reactions, access, rec),
		approvals: handler.NewApprovalHandler(approvals, access, rec),
		public:    handler.NewPublicHandler(shares, files, comments, cache, nil, logger),
		activityH: handler.NewActivityHandler(activityRepo),
	}
}

// jsonReq builds a request with a JSON body and matching content type.
func jsonReq(method string, body any) *http.Request {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/", rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

// multipartReq builds a file upload request with optional extra form
// fields.
func multipartReq(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write form field failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

// call invokes a handler directly.  user nil means unauthenticated;
// params are path parameters in name, value pairs.
func (e *env) call(h echo.HandlerFunc, req *http.Request, user *model.User, params ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	if len(params)%2 != 0 {
		e.t.Fatal("params must come in name, value pairs")
	}
	rec := httptest.NewRecorder()
	c := e.echo.NewContext(req, rec)
	if user != nil {
		c.Set("user_id", user.ID)
		c.Set("role", user.Role)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if err := h(c); err != nil {
		e.t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response failed: %v (body %q)", err, rec.Body.String())
	}
}

// seedProject creates an owner, a project and an invited-in member in
// one call for tests that start from an established roster.
func (e *env) seedProject(t *testing.T) (model.User, model.User, model.Project) {
	t.Helper()
	owner := testsupport.CreateUser(t, e.db, "owner", "editor")
	member := testsupport.CreateUser(t, e.db, "member", "editor")
	project := testsupport.CreateProject(t, e.db, owner.ID, "Launch Teaser")
	testsupport.AddMember(t, e.db, project.ID, member.ID, "editor")
	return owner, member, project
}
