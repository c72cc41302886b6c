package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/observability"
	apperrors "github.com/spec-kit/cdn-auth-service/pkg/util/errorutil"
)

// APIHandler exposes the protected demo resource plus status and debug
// endpoints.
type APIHandler struct {
	version string
	metrics *observability.Metrics
}

// NewAPIHandler constructs handler.
func NewAPIHandler(version string, metrics *observability.Metrics) *APIHandler {
	return &APIHandler{version: version, metrics: metrics}
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>CDN Auth Service</title></head>
<body>
	<h1>CDN Auth Service</h1>
	<p>Interactive JWT authentication and CDN validation demo.</p>
	<ul>
		<li>POST /auth/login &mdash; exchange a username/password for a bearer token</li>
		<li>GET /auth/me &mdash; identity of the presented token (protected)</li>
		<li>GET /api/protected &mdash; protected demo resource</li>
		<li>GET /api/status &mdash; service status</li>
		<li>GET /debug/headers &mdash; request headers as the origin sees them</li>
	</ul>
</body>
</html>`

// Index handles GET /, serving the demo landing page.
func (h *APIHandler) Index(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexPage)
}

// Protected handles GET /api/protected behind the auth middleware.
func (h *APIHandler) Protected(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	source := "Direct"
	if principal.CDNValidated {
		source = "CDN"
	}

	return c.JSON(fiber.Map{
		"message":        "Access granted to protected resource",
		"user":           principal.Subject,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"cdn_validated":  principal.CDNValidated,
		"edge_processed": principal.EdgeProcessed,
		"request_source": source,
	})
}

// Status handles GET /api/status.
func (h *APIHandler) Status(c *fiber.Ctx) error {
	success, failures := h.metrics.AuthStats()

	return c.JSON(fiber.Map{
		"api_status":  "operational",
		"version":     h.version,
		"environment": os.Getenv("APP_ENV"),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"auth": fiber.Map{
			"tokens_accepted": success,
			"tokens_rejected": failures,
		},
	})
}

// DebugHeaders handles GET /debug/headers, echoing what the edge layer
// attached to the request.
func (h *APIHandler) DebugHeaders(c *fiber.Ctx) error {
	headers := make(map[string]string)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	return c.JSON(fiber.Map{
		"headers":        headers,
		"cdn_validated":  c.Get("x-cdn-validated") == "true",
		"edge_processed": c.Get("x-edge-processed") == "true",
		"request_id":     c.Get("x-request-id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
