package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/training-events/internal/cache"
	"github.com/iliyamo/training-events/internal/config"
	"github.com/iliyamo/training-events/internal/database"
	"github.com/iliyamo/training-events/internal/handler"
	"github.com/iliyamo/training-events/internal/logger"
	"github.com/iliyamo/training-events/internal/middleware"
	"github.com/iliyamo/training-events/internal/model"
	"github.com/iliyamo/training-events/internal/queue"
	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/router"
	"github.com/iliyamo/training-events/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		lg.Fatal("database unavailable", "error", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			lg.Fatal("migration failed", "error", err)
		}
		lg.Info("schema applied")
	}

	// Redis is optional: without it the caches and the rate limiter are off.
	cacheCfg := config.LoadCacheConfig()
	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cacheClient := rdb
	if !cacheCfg.Enabled {
		cacheClient = nil
	}

	users := repository.NewCachedUserRepo(
		repository.NewUserRepo(db),
		cache.NewViewCache[model.User](cacheClient, cacheCfg.TTL, cacheCfg.Prefix, lg),
	)
	publisher := queue.NewPublisher(cfg.AMQPURL, lg)

	svc := service.New(service.Deps{
		Users:                        users,
		Seminars:                     repository.NewSeminarRepo(db),
		EventUsers:                   repository.NewEventUserRepo(db),
		Management:                   repository.NewManagementRepo(db),
		Licenses:                     repository.NewLicenseRepo(db),
		Statistics:                   repository.NewStatisticsRepo(db),
		Eligibility:                  repository.NewEligibilityRepo(db),
		Notifications:                repository.NewNotificationRepo(db),
		Publisher:                    publisher,
		Log:                          lg,
		EnforceEligibilityThresholds: cfg.EnforceEligibilityLimit,
	})

	if cfg.QueueConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.LicenseAuditDir, lg)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("license audit consumer stopped", "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: func() string { return uuid.NewString() }}))
	e.Use(middleware.RequestLog(lg))

	opts := router.Options{
		AuthEnabled: cfg.AuthEnabled,
		JWTSecret:   cfg.JWTSecret,
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg),
	}
	if cacheClient != nil && cacheCfg.ReportTTL > 0 {
		reports := cache.NewViewCache[middleware.CachedResponse](cacheClient, cacheCfg.ReportTTL, cacheCfg.Prefix, lg)
		opts.ReportCache = middleware.ReportCache(reports, cacheCfg.ReportMaxBody)
	}
	router.RegisterRoutes(e, handler.NewHandler(svc, lg, cfg.DefaultPageSize, cfg.MaxPageSize), db, opts)

	addr := ":" + cfg.Port
	go func() {
		lg.Info("listening", "addr", addr, "env", cfg.Env, "auth", cfg.AuthEnabled)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "error", err)
	}
}
