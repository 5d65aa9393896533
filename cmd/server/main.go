// Package main runs the UKM hub HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ukm-hub/backend/config"
	"github.com/ukm-hub/backend/internal/auth"
	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/internal/events"
	"github.com/ukm-hub/backend/internal/organizations"
	"github.com/ukm-hub/backend/internal/registrations"
	"github.com/ukm-hub/backend/internal/reports"
	"github.com/ukm-hub/backend/pkg/database"
	"github.com/ukm-hub/backend/pkg/queue"
	"github.com/ukm-hub/backend/pkg/redis"
	"github.com/ukm-hub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:           int32(cfg.Database.MaxConns),
		ConnectTimeout:     cfg.Database.ConnectTimeout(),
		StatementTimeoutMs: cfg.Database.StatementTimeoutMs,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var notifier queue.Notifier = queue.Discard{}
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		notifier = queue.NewQueue(rdb.Client, logger)
	} else {
		logger.Warn("REDIS_ADDR not set; notifications disabled")
	}

	// Interface stays nil when storage is off so the handler answers 503.
	var logos organizations.LogoStore
	if cfg.AWS.LogosBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			LogosBucket:     cfg.AWS.LogosBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			logos = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret)

	authRepo := auth.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	reportRepo := reports.NewRepository(pool)

	authSvc := auth.NewService(authRepo, jwtService, notifier, cfg.Auth.PasswordResetTTL(), logger)
	guard := authz.NewGuard(orgRepo)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := newRouter(handlers{
		auth:          auth.NewHandler(authSvc, authRepo, orgRepo, registrationRepo, logger),
		organizations: organizations.NewHandler(orgRepo, eventRepo, logos, notifier, logger),
		events:        events.NewHandler(eventRepo, orgRepo, logger),
		registrations: registrations.NewHandler(registrationRepo, eventRepo, notifier, logger),
		reports:       reports.NewHandler(reportRepo, logger),
	}, routerDeps{
		verifier:    jwtService,
		guard:       guard,
		eventScope:  eventRepo,
		registry:    registry,
		corsOrigins: cfg.Server.CORSAllowedOrigins,
		logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
