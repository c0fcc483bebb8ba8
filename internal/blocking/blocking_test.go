package blocking

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restoran-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+998 (90) 123-45-67", "+998901234567", false},
		{"90 123 45 67", "901234567", false},
		{"  +998901234567 ", "+998901234567", false},
		{"12345", "", true},
		{"+998 90 abc", "", true},
		{"998+901234567", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateRequest_Parse(t *testing.T) {
	now := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

	b, err := CreatePhoneBlockRequest{Phone: "+998 90 123 45 67", Duration: "72h"}.parse(now)
	require.NoError(t, err)
	assert.Equal(t, models.PhoneBlockActive, b.State)
	require.NotNil(t, b.ExpiresAt)
	assert.True(t, now.Add(72*time.Hour).Equal(*b.ExpiresAt))
	assert.Equal(t, models.PhoneBlockExpired, b.StateAt(now.Add(73*time.Hour)))

	b, err = CreatePhoneBlockRequest{Phone: "+998901234567"}.parse(now)
	require.NoError(t, err)
	assert.Nil(t, b.ExpiresAt)

	_, err = CreatePhoneBlockRequest{Phone: "+998901234567", Duration: "-1h"}.parse(now)
	assert.Error(t, err)
	_, err = CreatePhoneBlockRequest{Phone: "+998901234567", Duration: "forever"}.parse(now)
	assert.Error(t, err)
}

func TestHandlers_Validation(t *testing.T) {
	s := &Service{}
	app := fiber.New()
	app.Get("/phone-blocks", ListHandler(s))
	app.Get("/phone-blocks/check", CheckHandler(s))
	app.Post("/phone-blocks", CreateHandler(s))
	app.Delete("/phone-blocks/:id", DeleteHandler(s))

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{fiber.MethodGet, "/phone-blocks?state=paused", "", fiber.StatusBadRequest},
		{fiber.MethodGet, "/phone-blocks/check", "", fiber.StatusBadRequest},
		{fiber.MethodGet, "/phone-blocks/check?phone=12ab", "", fiber.StatusBadRequest},
		{fiber.MethodPost, "/phone-blocks", `{"phone":"abc"}`, fiber.StatusBadRequest},
		{fiber.MethodPost, "/phone-blocks", `{"phone":"+998901234567","duration":"soon"}`, fiber.StatusBadRequest},
		{fiber.MethodPost, "/phone-blocks", `not json`, fiber.StatusBadRequest},
		{fiber.MethodDelete, "/phone-blocks/zero", "", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
