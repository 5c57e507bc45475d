package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"

	"github.com/zimmerman-team/dx.server/core/common"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// echoPrincipal trả về principal trong Locals để test kiểm tra
func echoPrincipal(c fiber.Ctx) error {
	principal, _ := c.Locals("principal").(string)
	return c.SendString(principal)
}

func newAuthTestApp(mw fiber.Handler) *fiber.App {
	app := fiber.New()
	g := app.Group("/p")
	g.Use(mw)
	g.Get("/", echoPrincipal)
	return app
}

func TestRequireAuth_ValidToken(t *testing.T) {
	app := newAuthTestApp(RequireAuth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "auth0|alice"})
	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode, "token hợp lệ phải qua được")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "auth0|alice", string(body), "principal phải là sub của token")
}

func TestRequireAuth_MissingToken(t *testing.T) {
	app := newAuthTestApp(RequireAuth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "thiếu token phải bị 401")
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	app := newAuthTestApp(RequireAuth(testSecret))

	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "alice"})
	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token sai chữ ký phải bị 401")
}

func TestRequireAuth_MissingSub(t *testing.T) {
	app := newAuthTestApp(RequireAuth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{"aud": "x"})
	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token không có sub phải bị 401")
}

func TestOptionalAuth_MissingTokenResolvesAnonymous(t *testing.T) {
	app := newAuthTestApp(OptionalAuth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode, "optional auth không được chặn request")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, common.AnonymousPrincipal, string(body), "thiếu token phải resolve về ẩn danh")
}

func TestOptionalAuth_ValidTokenResolvesPrincipal(t *testing.T) {
	app := newAuthTestApp(OptionalAuth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "bob"})
	req := httptest.NewRequest(http.MethodGet, "/p/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "bob", string(body), "principal phải là sub của token")
}
