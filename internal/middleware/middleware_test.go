package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilteredWriter(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		written bool
	}{
		{"fast success dropped", "15:04:05 | 200 | 1.2ms | GET /health\n", false},
		{"client error kept", "15:04:05 | 404 | 1.2ms | GET /nope\n", true},
		{"server error kept", "15:04:05 | 500 | 900µs | GET /api/v1/poll/history\n", true},
		{"slow success kept", "15:04:05 | 200 | 750ms | GET /ready\n", true},
		{"unparsable kept", "garbage\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := newFilteredWriter(&buf, 500*time.Millisecond, 400)

			n, err := w.Write([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, len(tt.line), n)
			if tt.written {
				assert.Equal(t, tt.line, buf.String())
			} else {
				assert.Zero(t, buf.Len())
			}
		})
	}
}

func TestAdminKey(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AdminKey("secret"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", fiber.StatusForbidden},
		{"wrong key", "nope", fiber.StatusForbidden},
		{"valid key", "secret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.key != "" {
				req.Header.Set("X-Admin-Key", tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/limited", RateLimit(2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
