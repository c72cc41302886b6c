package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cdn-auth-service/internal/api/dto"
	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/service"
	apperrors "github.com/spec-kit/cdn-auth-service/pkg/util/errorutil"
)

// AuthHandler exposes login, registration and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	_, signed, _, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return apperrors.MapError(err)
	}

	return c.JSON(dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.auth.Authority().TTL().Seconds()),
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	user, signed, _, err := h.auth.Register(c.Context(), req.Username, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
		},
		"auth": dto.TokenResponse{
			AccessToken: signed,
			TokenType:   "Bearer",
			ExpiresIn:   int64(h.auth.Authority().TTL().Seconds()),
		},
	})
}

// Me handles GET /auth/me on a protected route.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	return c.JSON(dto.UserInfo{
		Username:      principal.Subject,
		Authenticated: true,
		RequestID:     c.Get("x-request-id"),
		CDNValidated:  principal.CDNValidated,
	})
}
