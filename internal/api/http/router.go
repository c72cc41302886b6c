package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cdn-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/cdn-auth-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	API            *handlers.APIHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.API.Index)
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	apiGroup := app.Group("/api")
	apiGroup.Get("/status", cfg.API.Status)
	apiGroup.Get("/protected", cfg.AuthMiddleware.Handle, cfg.API.Protected)

	app.Get("/debug/headers", cfg.API.DebugHeaders)
}
