package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ayush-sharaf/pollproject-backend/internal/config"
	"github.com/ayush-sharaf/pollproject-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		AllowedOrigin: "*",
		DatabaseType:  "sqlite",
		DatabaseURL:   ":memory:",
		AdminKey:      "secret",
	}
}

func TestOpenHistorySQLite(t *testing.T) {
	store, closeStore, err := openHistory(context.Background(), testConfig())
	require.NoError(t, err)
	defer closeStore()

	assert.NoError(t, store.Ping(context.Background()))
	polls, err := store.RecentPolls(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, polls)
}

func TestNewAppRoutes(t *testing.T) {
	cfg := testConfig()
	store, closeStore, err := openHistory(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	hub := service.NewWSHub()
	classroom := service.NewClassroom(hub, store, service.ClassroomConfig{})
	app := newApp(cfg, store, classroom, hub)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health", "/health", "", fiber.StatusOK},
		{"ready", "/ready", "", fiber.StatusOK},
		{"current poll", "/api/v1/poll/current", "", fiber.StatusOK},
		{"no results yet", "/api/v1/poll/results", "", fiber.StatusNotFound},
		{"history", "/api/v1/poll/history", "", fiber.StatusOK},
		{"stats without key", "/api/v1/admin/stats", "", fiber.StatusForbidden},
		{"stats with wrong key", "/api/v1/admin/stats", "nope", fiber.StatusForbidden},
		{"stats with key", "/api/v1/admin/stats", "secret", fiber.StatusOK},
		{"ws without upgrade", "/ws", "", fiber.StatusUpgradeRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("X-Admin-Key", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
