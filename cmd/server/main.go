package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/activity"
	"github.com/tbnobed/obview/internal/config"
	"github.com/tbnobed/obview/internal/database"
	"github.com/tbnobed/obview/internal/events"
	"github.com/tbnobed/obview/internal/handler"
	"github.com/tbnobed/obview/internal/mailer"
	"github.com/tbnobed/obview/internal/middleware"
	"github.com/tbnobed/obview/internal/observ"
	"github.com/tbnobed/obview/internal/repository"
	"github.com/tbnobed/obview/internal/router"
	"github.com/tbnobed/obview/internal/token"
)

func main() {
	// .env is optional; deployed instances configure through the
	// environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unreachable, rate limiting and share cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	folders := repository.NewFolderRepo(db)
	projects := repository.NewProjectRepo(db)
	members := repository.NewMembershipRepo(db, cfg.DBDriver)
	invites := repository.NewInvitationRepo(db)
	files := repository.NewFileRepo(db)
	processing := repository.NewProcessingRepo(db)
	shares := repository.NewShareLinkRepo(db)
	comments := repository.NewCommentRepo(db)
	reactions := repository.NewReactionRepo(db)
	approvals := repository.NewApprovalRepo(db)
	activityLog := repository.NewActivityRepo(db)

	publisher := events.NewPublisher(cfg.AMQPURL, logger)
	recorder := activity.NewRecorder(activityLog, publisher, logger)
	sender := mailer.NewSender(cfg, logger)
	issuer := token.Issuer{TTL: time.Duration(cfg.InviteTTLDays) * 24 * time.Hour}
	access := handler.NewAccess(users, projects, members, files)

	authH := handler.NewAuthHandler(cfg, users, tokens, recorder)
	userH := handler.NewUserHandler(users)
	projectH := handler.NewProjectHandler(projects, members, folders, activityLog, access, recorder)
	folderH := handler.NewFolderHandler(folders)
	inviteH := handler.NewInviteHandler(cfg, db, issuer, invites, members, access, sender, recorder, logger)
	fileH := handler.NewFileHandler(cfg, db, files, processing, shares, issuer, access, recorder, logger)
	commentH := handler.NewCommentHandler(comments, reactions, access, recorder)
	approvalH := handler.NewApprovalHandler(approvals, access, recorder)
	activityH := handler.NewActivityHandler(activityLog)
	publicH := handler.NewPublicHandler(shares, files, comments, config.LoadShareCacheConfig(), rdb, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(logger))
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb, logger)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterProjects(e, projectH, folderH, cfg.JWTSecret)
	router.RegisterInvites(e, inviteH, cfg.JWTSecret, limiter)
	router.RegisterFiles(e, fileH, cfg.JWTSecret)
	router.RegisterReview(e, commentH, approvalH, cfg.JWTSecret)
	router.RegisterAdmin(e, userH, activityH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, limiter)

	go events.StartActivityConsumer(cfg.AMQPURL, logger)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
