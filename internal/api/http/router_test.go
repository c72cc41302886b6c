package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cdn-auth-service/internal/api/http/handlers"
	"github.com/spec-kit/cdn-auth-service/internal/auth"
	"github.com/spec-kit/cdn-auth-service/internal/observability"
	"github.com/spec-kit/cdn-auth-service/internal/token"
)

func newProtectedApp(t *testing.T, keyring *token.Keyring, authority *token.Authority) *fiber.App {
	t.Helper()

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)

	mw := auth.NewMiddleware(authority, keyring, zap.NewNop(), metrics)
	app.Get("/api/protected", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"user": principal.Subject})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestProtectedRoute(t *testing.T) {
	authority := token.NewAuthority()
	keyring := token.NewKeyring([]byte("s3cr3t"))
	app := newProtectedApp(t, keyring, authority)

	signed, _, err := authority.Issue("admin", keyring.Current(), time.Now())
	require.NoError(t, err)

	status, body := doRequest(t, app, "Bearer "+signed)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body["user"])
}

func TestProtectedRouteRejectionsAreUniform(t *testing.T) {
	authority := token.NewAuthority()
	keyring := token.NewKeyring([]byte("s3cr3t"))
	app := newProtectedApp(t, keyring, authority)

	expired, _, err := token.NewAuthority(token.WithTTL(time.Second)).Issue("admin", keyring.Current(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	forged, _, err := authority.Issue("admin", []byte("wrong-secret"), time.Now())
	require.NoError(t, err)

	headers := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic abc",
		"malformed token": "Bearer not.a",
		"forged token":    "Bearer " + forged,
		"expired token":   "Bearer " + expired,
	}

	// every failure kind produces the identical response so callers cannot
	// tell which check failed
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			status, body := doRequest(t, app, header)
			assert.Equal(t, http.StatusUnauthorized, status)
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "UNAUTHORIZED", errBody["code"])
			assert.Equal(t, "unauthorized", errBody["message"])
		})
	}
}

func TestProtectedRouteAcceptsRotatedSecrets(t *testing.T) {
	authority := token.NewAuthority()
	keyring := token.NewKeyring([]byte("old"))
	app := newProtectedApp(t, keyring, authority)

	signed, _, err := authority.Issue("admin", keyring.Current(), time.Now())
	require.NoError(t, err)

	keyring.Rotate([]byte("new"))
	status, _ := doRequest(t, app, "Bearer "+signed)
	assert.Equal(t, http.StatusOK, status)

	keyring.DropPrevious()
	status, _ = doRequest(t, app, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCORSHeadersApplied(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestIndexPage(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/", handlers.NewAPIHandler("dev", metrics).Index)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/auth/login")
}

func TestRequestIDAssigned(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("x-request-id"))

	// an id supplied by the edge layer is preserved
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("x-request-id", "req-fixed")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-fixed", resp.Header.Get("x-request-id"))
}
