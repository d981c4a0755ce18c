package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luismi76/cursos/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(testutil.TestJWTSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userID").(uuid.UUID).String())
	})
	return app
}

func TestAuthRequiredAcceptsBearerAndQueryToken(t *testing.T) {
	h := testutil.NewTestHelper(t)
	userID := uuid.New()
	token := h.IssueToken(testutil.TestJWTSecret, userID, time.Hour)
	app := newAuthApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userID.String(), string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/me?access_token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRequiredRejects(t *testing.T) {
	h := testutil.NewTestHelper(t)
	userID := uuid.New()

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testutil.TestJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"Missing token", ""},
		{"Wrong scheme", "Token abc"},
		{"Wrong secret", "Bearer " + h.IssueToken("other-secret", userID, time.Hour)},
		{"Expired", "Bearer " + h.IssueToken(testutil.TestJWTSecret, userID, -time.Minute)},
		{"Bad subject", "Bearer " + noSubject},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	app := fiber.New()
	app.Use(OriginAllowed("https://campus.example.com, https://admin.example.com"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	tests := []struct {
		origin string
		status int
	}{
		{"", fiber.StatusNoContent},
		{"https://campus.example.com", fiber.StatusNoContent},
		{"https://admin.example.com", fiber.StatusNoContent},
		{"https://evil.example.com", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.origin)
	}
}
