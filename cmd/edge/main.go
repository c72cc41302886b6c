package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/config"
	"github.com/spec-kit/cdn-auth-service/internal/edge"
	"github.com/spec-kit/cdn-auth-service/internal/observability"
	"github.com/spec-kit/cdn-auth-service/internal/persistence"
	"github.com/spec-kit/cdn-auth-service/internal/secrets"
	"github.com/spec-kit/cdn-auth-service/internal/token"
)

// The edge validator fronts the origin the way the CDN layer does: it
// validates bearer tokens on protected paths, annotates forwarded requests
// and short-circuits everything it rejects.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := secrets.NewRedisStore(redis.Client, cfg.Secrets.RedisKey)

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 5*time.Second)
	secret, err := store.Fetch(fetchCtx)
	fetchCancel()
	if err != nil {
		if cfg.Secrets.StaticSecret == "" {
			logger.Fatal("failed to load signing secret", zap.Error(err))
		}
		logger.Warn("secret store unavailable, using static signing secret", zap.Error(err))
		secret = []byte(cfg.Secrets.StaticSecret)
	}
	keyring := token.NewKeyring(secret)

	refresher := secrets.NewRefresher(store, keyring, cfg.Secrets.RefreshInterval(), logger)
	go refresher.Run(ctx)

	authority := token.NewAuthority(
		token.WithTTL(cfg.Auth.TokenTTL()),
		token.WithIssuer(cfg.Auth.Issuer),
		token.WithAudience(cfg.Auth.Audience),
	)

	metrics := observability.NewMetrics()
	validator := edge.NewValidator(authority, keyring, cfg.Edge.OriginURL, cfg.Edge.ProtectedPaths, logger, metrics)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(validator.Handler)

	go func() {
		logger.Info("edge validator listening",
			zap.String("addr", cfg.Edge.Addr()),
			zap.String("origin", cfg.Edge.OriginURL),
		)
		if err := app.Listen(cfg.Edge.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
