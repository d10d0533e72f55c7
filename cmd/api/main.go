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

	"casevault-platform/internal/acl"
	"casevault-platform/internal/audit"
	"casevault-platform/internal/auth"
	"casevault-platform/internal/clearance"
	"casevault-platform/internal/config"
	"casevault-platform/internal/decision"
	"casevault-platform/internal/httpapi"
	"casevault-platform/internal/resource"
	"casevault-platform/internal/retention"
	"casevault-platform/internal/sharing"
	"casevault-platform/pkg/logger"
	"casevault-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
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

	// Persistence and services.
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	auditReader := audit.NewPostgresRepo(db)

	resourceRepo := resource.NewPostgresRepo(db)
	resolver := resource.NewResolver(resourceRepo)
	aclStore := acl.NewStore(acl.NewPostgresRepo(db))
	shareRepo := sharing.NewPostgresRepo(db)
	shareEvaluator := sharing.NewEvaluator(shareRepo)
	shareSvc := sharing.NewService(shareRepo, auditSvc)
	clearanceSvc := clearance.NewService(clearance.NewPostgresRepo(db), auditSvc)

	sweepLocker := retention.NewRedisLocker(rdb)
	holdSvc := retention.NewService(retention.NewPostgresHoldRepo(db), retention.NewPostgresPolicyRepo(db), auditSvc)
	holdSvc.SetLocker(sweepLocker, cfg.Retention.SweepLockTTL)
	sweeper := retention.NewSweeper(resourceRepo, resolver, retention.NewPostgresPolicyRepo(db), holdSvc, sweepLocker, auditSvc)
	sweeper.LockTTL = cfg.Retention.SweepLockTTL
	sweeper.SetNotifier(retention.LogNotifier{Log: log})

	engine := decision.NewEngine(resolver, aclStore, shareEvaluator, holdSvc, decision.NewAuditSink(auditSvc))
	engine.Timeout = cfg.Decision.DependencyTimeout

	handlers := httpapi.Handlers{
		Auth:      authManager,
		Engine:    engine,
		Clearance: clearanceSvc,
		Holds:     holdSvc,
		Shares:    shareSvc,
		Sweeper:   sweeper,
		AuditLog:  auditReader,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, auth.RequireAccessToken(authManager))

	// Scheduled retention sweep. The manual admin endpoint drives the same
	// sweeper; the per-resource Redis lock keeps overlapping runs safe.
	var scheduler *cron.Cron
	if cfg.Retention.SweepSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Retention.SweepSchedule, func() {
			ctx, cancel := context.WithTimeout(rootCtx, 10*time.Minute)
			defer cancel()
			results, err := sweeper.Run(ctx, time.Now())
			if err != nil {
				log.Error("retention sweep failed", "err", err, "completed", len(results))
				return
			}
			log.Info("retention sweep finished", "outcomes", len(results))
		})
		if err != nil {
			log.Error("sweep schedule invalid", "schedule", cfg.Retention.SweepSchedule, "err", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

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

	if scheduler != nil {
		// Wait for an in-flight sweep so a half-applied policy action is not
		// abandoned mid-resource.
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
