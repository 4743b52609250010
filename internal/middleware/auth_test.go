package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newAuthApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/who", h, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": ViewerID(c)})
	})
	return app
}

func TestAuth_IssueAndParse(t *testing.T) {
	a := NewAuth(testSecret, time.Hour)

	token, err := a.IssueToken(42, "alice")
	require.NoError(t, err)

	userID, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	other := NewAuth("a-different-secret-of-sufficient-length", time.Hour)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestAuth_RejectsExpiredAndForeignTokens(t *testing.T) {
	a := NewAuth(testSecret, -time.Minute)
	expired, err := a.IssueToken(1, "bob")
	require.NoError(t, err)
	_, err = a.ParseToken(expired)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"iss": "someone-else",
		"aud": tokenAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewAuth(testSecret, time.Hour).ParseToken(signed)
	assert.Error(t, err)
}

func TestAuth_Required(t *testing.T) {
	a := NewAuth(testSecret, time.Hour)
	app := newAuthApp(a.Required())
	token, _ := a.IssueToken(7, "carol")

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuth_OptionalFallsBackToAnonymous(t *testing.T) {
	a := NewAuth(testSecret, time.Hour)
	app := newAuthApp(a.Optional())

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
