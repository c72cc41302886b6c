package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/observability"
	"github.com/spec-kit/cdn-auth-service/internal/token"
	apperrors "github.com/spec-kit/cdn-auth-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the current request.
type Principal struct {
	Subject       string
	CDNValidated  bool
	EdgeProcessed bool
}

// Middleware validates bearer tokens on protected routes. Every failure maps
// to the same unauthorized response; the specific failure kind goes only to
// logs and metrics so a rejected caller learns nothing about why.
type Middleware struct {
	authority *token.Authority
	keyring   *token.Keyring
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewMiddleware constructs middleware.
func NewMiddleware(authority *token.Authority, keyring *token.Keyring, logger *zap.Logger, metrics *observability.Metrics) *Middleware {
	return &Middleware{authority: authority, keyring: keyring, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	tokenText, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		m.reject(c, "missing_bearer")
		return apperrors.NewUnauthorized("unauthorized")
	}

	subject, err := m.authority.Validate(tokenText, m.keyring.Secrets(), time.Now())
	if err != nil {
		m.reject(c, token.Kind(err))
		return apperrors.NewUnauthorized("unauthorized")
	}

	c.Locals(principalKey, &Principal{
		Subject:       subject,
		CDNValidated:  c.Get("x-cdn-validated") == "true",
		EdgeProcessed: c.Get("x-edge-processed") == "true",
	})
	m.metrics.RecordAuthSuccess()
	return c.Next()
}

func (m *Middleware) reject(c *fiber.Ctx, kind string) {
	m.metrics.RecordAuthFailure(kind)
	m.logger.Debug("token rejected",
		zap.String("kind", kind),
		zap.String("path", c.Path()),
		zap.String("request_id", c.Get("x-request-id")),
	)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
