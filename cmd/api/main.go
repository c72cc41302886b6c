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

	httptransport "github.com/spec-kit/cdn-auth-service/internal/api/http"
	"github.com/spec-kit/cdn-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/config"
	"github.com/spec-kit/cdn-auth-service/internal/observability"
	"github.com/spec-kit/cdn-auth-service/internal/persistence"
	"github.com/spec-kit/cdn-auth-service/internal/repository"
	"github.com/spec-kit/cdn-auth-service/internal/secrets"
	"github.com/spec-kit/cdn-auth-service/internal/service"
	"github.com/spec-kit/cdn-auth-service/internal/token"
)

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := secrets.NewRedisStore(redis.Client, cfg.Secrets.RedisKey)
	keyring, err := loadKeyring(ctx, store, cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("failed to load signing secret", zap.Error(err))
	}

	refresher := secrets.NewRefresher(store, keyring, cfg.Secrets.RefreshInterval(), logger)
	go refresher.Run(ctx)

	authority := token.NewAuthority(
		token.WithTTL(cfg.Auth.TokenTTL()),
		token.WithIssuer(cfg.Auth.Issuer),
		token.WithAudience(cfg.Auth.Audience),
	)

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	authService := service.NewAuthService(cfg.Auth, userRepo, authority, keyring, logger)

	if err := authService.EnsureBootstrapUser(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("failed to ensure bootstrap user", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewMiddleware(authority, keyring, logger, metrics)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		API:            handlers.NewAPIHandler(cfg.App.Version, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// loadKeyring fetches the initial signing secret from the store, falling back
// to the statically configured secret for local development.
func loadKeyring(ctx context.Context, store secrets.Store, cfg config.SecretsConfig, logger *zap.Logger) (*token.Keyring, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	secret, err := store.Fetch(fetchCtx)
	if err == nil {
		return token.NewKeyring(secret), nil
	}
	if cfg.StaticSecret != "" {
		logger.Warn("secret store unavailable, using static signing secret", zap.Error(err))
		return token.NewKeyring([]byte(cfg.StaticSecret)), nil
	}
	return nil, err
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
