// Package main is the ukmctl administration tool.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ukm-hub/backend/config"
	"github.com/ukm-hub/backend/internal/auth"
	"github.com/ukm-hub/backend/pkg/database"
	"github.com/ukm-hub/backend/pkg/queue"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	root := newRootCmd(func(ctx context.Context) (*backend, error) {
		return openBackend(ctx, logger)
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openBackend connects to the database configured in the environment.
func openBackend(ctx context.Context, logger *zap.Logger) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:       2,
		ConnectTimeout: cfg.Database.ConnectTimeout(),
	}, logger)
	if err != nil {
		return nil, err
	}
	users := auth.NewRepository(pool)
	// Register issues a token; the CLI discards it.
	svc := auth.NewService(users, auth.NewJWTService(cfg.JWT.Secret), queue.Discard{}, cfg.Auth.PasswordResetTTL(), logger)
	return &backend{
		accounts: svc,
		roles:    users,
		migrate:  func(ctx context.Context) error { return database.Migrate(ctx, pool) },
		close:    pool.Close,
	}, nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := config.Build()
	return logger
}
