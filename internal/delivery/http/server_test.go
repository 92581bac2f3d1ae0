package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/delivery/http/handler"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer wires handlers without use cases; only routes that never
// reach a use case may be exercised.
func newTestServer() *Server {
	log := zap.NewNop()
	sessions := middleware.NewSessions(nil, false, log)
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 30789}}

	return NewServer(cfg, log, sessions, Handlers{
		Line:     handler.NewLineHandler(nil, log),
		Operator: handler.NewOperatorHandler(nil, log),
		Station:  handler.NewStationHandler(nil, log),
		Request:  handler.NewRequestHandler(nil, log),
		Overview: handler.NewOverviewHandler(nil, log),
		Admin:    handler.NewAdminHandler(nil, log),
		Auth:     handler.NewAuthHandler(nil, sessions, log),
		System:   handler.NewSystemHandler(map[string]handler.HealthChecker{}, log),
	})
}

func TestServer_LoginRequired(t *testing.T) {
	app := newTestServer().App()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/lines"},
		{http.MethodPut, "/api/lines/S1"},
		{http.MethodDelete, "/api/lines/S1/stations/Central"},
		{http.MethodPost, "/api/operators/request"},
		{http.MethodPost, "/api/operators/sr/members"},
		{http.MethodPost, "/api/stations"},
		{http.MethodPut, "/api/stations/3"},
		{http.MethodGet, "/api/admin/requests"},
		{http.MethodPost, "/api/admin/requests/1/handle"},
		{http.MethodPost, "/api/admin/companies/handle-request"},
		{http.MethodDelete, "/api/admin/companies/request"},
		{http.MethodGet, "/api/admin/settings"},
		{http.MethodPost, "/api/admin/logs/clear"},
		{http.MethodDelete, "/api/admin/operators/sr"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestServer_PublicRoutes(t *testing.T) {
	app := newTestServer().App()

	for _, path := range []string{"/api/health", "/setup.lua", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	app := newTestServer().App()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "HTTP_ERROR", body.Error.Code)
}
