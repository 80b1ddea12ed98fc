package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/noteduco342/groupmeet-backend/internal/cache"
	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/noteduco342/groupmeet-backend/internal/handlers"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/logger"
	"github.com/noteduco342/groupmeet-backend/internal/middleware"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/service"
	"github.com/noteduco342/groupmeet-backend/internal/storage"
)

const revokedPruneInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	appLog := logger.New(cfg)

	// Initialize database connection
	db, err := repository.InitDB(cfg.Database)
	if err != nil {
		appLog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it every read goes to the database.
	redisCache := cache.NewRedisCache(cfg.Redis)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		appLog.Warn("redis connection failed, running without cache", "addr", cfg.Redis.Addr, "error", err)
		_ = redisCache.Close()
		redisCache = nil
	} else {
		appLog.Info("redis cache connected", "addr", cfg.Redis.Addr)
	}
	cancelPing()

	membershipCache := cache.NewMembershipCache(redisCache)
	tokenCache := cache.NewTokenCache(redisCache)

	// Object storage is best-effort; icon endpoints answer 503 when missing.
	var objects service.ObjectStore
	if !cfg.S3.Enabled() {
		appLog.Warn("S3 storage not configured, group icons disabled")
	} else if st, err := storage.NewS3Storage(cfg.S3); err != nil {
		appLog.Warn("failed to initialize S3 storage", "error", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := st.EnsureBucket(ctx, cfg.S3.Region); err != nil {
			appLog.Warn("S3 bucket unavailable, group icons disabled", "bucket", cfg.S3.Bucket, "error", err)
		} else {
			objects = st
			appLog.Info("S3 storage initialized", "bucket", cfg.S3.Bucket)
		}
		cancel()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	revokedRepo := repository.NewRevokedTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	memberRepo := repository.NewMembershipRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	// Initialize services
	memberships := service.NewMembershipService(groupRepo, memberRepo, membershipCache, appLog)
	authService := service.NewAuthService(userRepo, revokedRepo, tokenCache, cfg.Auth, appLog)
	userService := service.NewUserService(userRepo, groupRepo, memberships, objects, appLog)
	groupService := service.NewGroupService(groupRepo, postRepo, memberships, objects, appLog)
	postService := service.NewPostService(postRepo, commentRepo, attendanceRepo, memberships, cfg.Calendar.Location, appLog)
	feedService := service.NewFeedService(postRepo, attendanceRepo, memberships, cfg.Calendar, appLog)
	iconService := service.NewIconService(groupRepo, objects, cfg.Server.PublicAPIBaseURL, appLog)

	var redisPinger handlers.Pinger
	if redisCache != nil {
		redisPinger = redisCache
	}
	dbPinger := handlers.PingFunc(func(ctx context.Context) error {
		return repository.Ping(ctx, db)
	})

	h := handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		User:       handlers.NewUserHandler(userService, authService),
		Group:      handlers.NewGroupHandler(groupService),
		Membership: handlers.NewMembershipHandler(memberships),
		Post:       handlers.NewPostHandler(postService),
		Feed:       handlers.NewFeedHandler(feedService),
		Media:      handlers.NewMediaHandler(iconService, appLog),
		Health:     handlers.NewHealthHandler(dbPinger, redisPinger, appLog),
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		BodyLimit:    cfg.Server.BodyLimit,
		UnescapePath: true,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.TokenHeader,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: len(cfg.Server.AllowedOrigins) > 0,
	}))

	mw := handlers.RouteMiddleware{
		AuthRequired: middleware.AuthRequired(authService),
		AuthLimiter: limiter.New(limiter.Config{
			Max:        cfg.Server.AuthRateLimit,
			Expiration: cfg.Server.AuthRateWindow,
		}),
		UploadLimiter: limiter.New(limiter.Config{
			Max:        10,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				if uid, err := httpx.LocalUint(c, middleware.LocalUserID); err == nil {
					return "icon:" + strconv.FormatUint(uint64(uid), 10)
				}
				return c.IP()
			},
		}),
	}
	handlers.RegisterRoutes(app.Group("/api", middleware.OriginAllowed(cfg.Server.AllowedOrigins)), h, mw)

	stop := make(chan struct{})
	go pruneRevokedTokens(authService, appLog, stop)

	go func() {
		appLog.Info("server starting", "port", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			appLog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLog.Error("shutdown failed", "error", err)
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func pruneRevokedTokens(authService *service.AuthService, log *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(revokedPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n, err := authService.PruneRevoked()
			if err != nil {
				log.Warn("prune revoked tokens failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("pruned revoked tokens", "count", n)
			}
		}
	}
}
