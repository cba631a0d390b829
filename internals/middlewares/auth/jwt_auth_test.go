package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helper "pointage_backend/internals/helpers"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	chain := append([]fiber.Handler{AuthJWT(AuthJWTOpts{Secret: testSecret, AllowCookieFallback: true})}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		id, err := helper.GetUserIDFromToken(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String() + "|" + helper.GetRole(c))
	})
	app.Get("/me", chain...)
	return app
}

func do(t *testing.T, app *fiber.App, token string, cookie bool) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	if token != "" {
		if cookie {
			req.Header.Set("Cookie", "access_token="+token)
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthJWT(t *testing.T) {
	uid := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		token  string
		cookie bool
		status int
		body   string
	}{
		{"no token", "", false, fiber.StatusUnauthorized, ""},
		{"sub claim", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": uid.String(), "exp": exp}), false, 200, uid.String() + "|user"},
		{"cookie fallback", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"id": uid.String(), "role": "Admin", "exp": exp}), true, 200, uid.String() + "|admin"},
		{"roles_global admin", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": uid.String(), "roles_global": []string{"user", "admin"}, "exp": exp}), false, 200, uid.String() + "|admin"},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": uid.String(), "exp": exp}), false, fiber.StatusUnauthorized, ""},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": uid.String(), "exp": time.Now().Add(-time.Hour).Unix()}), false, fiber.StatusUnauthorized, ""},
		{"not a uuid", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "42", "exp": exp}), false, fiber.StatusUnauthorized, ""},
	}
	app := newApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, app, tc.token, tc.cookie)
			if status != tc.status {
				t.Fatalf("status = %d, want %d (%s)", status, tc.status, body)
			}
			if tc.body != "" && body != tc.body {
				t.Errorf("body = %q, want %q", body, tc.body)
			}
		})
	}
}

func TestOnlyRoles(t *testing.T) {
	uid := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()
	app := newApp(OnlyRoles("admins only", helper.RoleAdmin))

	user := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": uid.String(), "exp": exp})
	if status, _ := do(t, app, user, false); status != fiber.StatusForbidden {
		t.Errorf("user status = %d, want 403", status)
	}
	admin := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": uid.String(), "role": "admin", "exp": exp})
	if status, _ := do(t, app, admin, false); status != fiber.StatusOK {
		t.Errorf("admin status = %d, want 200", status)
	}
}
