package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civic-platform/internal/auth"
	"civic-platform/internal/catalog"
	"civic-platform/internal/complaints"
	"civic-platform/internal/config"
	"civic-platform/internal/httpapi"
	"civic-platform/internal/notifications"
	"civic-platform/internal/reporting"
	"civic-platform/internal/users"
	"civic-platform/pkg/logger"
	"civic-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	userSvc := users.NewService(users.NewSQLRepo(db))
	catalogSvc := catalog.NewService(catalog.NewSQLRepo(db))
	notifySvc := notifications.NewService(notifications.NewSQLRepo(db), rdb, log)
	complaintSvc := complaints.NewService(complaints.NewSQLRepo(db), userSvc, catalogSvc, notifySvc)
	reportSvc := reporting.NewService(reporting.NewSQLRepo(db))

	h := httpapi.Handlers{
		Auth:          authManager,
		Users:         userSvc,
		Catalog:       catalogSvc,
		Complaints:    complaintSvc,
		Notifications: notifySvc,
		Reports:       reportSvc,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h,
		auth.RequireAccessToken(authManager),
		complaints.SubmissionCap(rdb, cfg.Limits.SubmissionCap, cfg.Limits.SubmissionCapTTL),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
