package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestApp() *fiber.App {
	app := fiber.New()
	admin := app.Group("/admin", JWTMiddleware(testSecret), RequireRole(models.RoleSuperAdmin, models.RoleAdmin))
	admin.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c)})
	})
	return app
}

func request(t *testing.T, app *fiber.App, header string) int {
	req := httptest.NewRequest(fiber.MethodGet, "/admin/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestJWTMiddleware(t *testing.T) {
	app := newTestApp()

	admin, err := GenerateToken(testSecret, time.Hour, &models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	waiter, err := GenerateToken(testSecret, time.Hour, &models.User{ID: 8, Role: models.RoleWaiter})
	require.NoError(t, err)
	expired, err := GenerateToken(testSecret, -time.Minute, &models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)
	foreign, err := GenerateToken("another-secret-another-secret-xx", time.Hour, &models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid admin", "Bearer " + admin, fiber.StatusOK},
		{"lowercase scheme", "bearer " + admin, fiber.StatusOK},
		{"waiter is forbidden", "Bearer " + waiter, fiber.StatusForbidden},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Token " + admin, fiber.StatusUnauthorized},
		{"expired", "Bearer " + expired, fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, request(t, app, tt.header))
		})
	}
}
