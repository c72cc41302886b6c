package edge

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/observability"
	"github.com/spec-kit/cdn-auth-service/internal/token"
)

// Validator authenticates requests at the edge before they reach the origin.
// Protected paths require a valid bearer token; everything else passes
// through. Forwarded requests carry annotation headers so the origin can tell
// edge-validated traffic from direct traffic.
type Validator struct {
	authority *token.Authority
	keyring   *token.Keyring
	originURL string
	protected []string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewValidator builds an edge validator fronting originURL.
func NewValidator(authority *token.Authority, keyring *token.Keyring, originURL string, protected []string, logger *zap.Logger, metrics *observability.Metrics) *Validator {
	return &Validator{
		authority: authority,
		keyring:   keyring,
		originURL: strings.TrimRight(originURL, "/"),
		protected: protected,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handler validates, annotates and forwards a single request.
func (v *Validator) Handler(c *fiber.Ctx) error {
	if v.RequiresAuth(c.Path()) {
		tokenText, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return v.reject(c, "missing_bearer")
		}
		subject, err := v.authority.Validate(tokenText, v.keyring.Secrets(), time.Now())
		if err != nil {
			return v.reject(c, token.Kind(err))
		}
		c.Request().Header.Set("x-auth-subject", subject)
	}

	headers := &c.Request().Header
	headers.Set("x-cdn-validated", "true")
	headers.Set("x-edge-processed", "true")
	headers.Set("x-forwarded-proto", "https")
	if c.Get("x-request-id") == "" {
		headers.Set("x-request-id", "req-"+uuid.NewString())
	}

	return proxy.Do(c, v.originURL+string(c.Request().RequestURI()))
}

// RequiresAuth reports whether path falls under a protected prefix.
func (v *Validator) RequiresAuth(path string) bool {
	for _, prefix := range v.protected {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// reject short-circuits with a generic unauthorized body. The failure kind is
// recorded for operators but never revealed to the caller.
func (v *Validator) reject(c *fiber.Ctx, kind string) error {
	v.metrics.RecordAuthFailure(kind)
	v.logger.Debug("edge rejected request",
		zap.String("kind", kind),
		zap.String("path", c.Path()),
	)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "unauthorized",
	})
}
