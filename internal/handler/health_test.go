package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	s := &server.Server{Config: &config.Config{Primary: config.Primary{Env: "test"}}}

	tests := []struct {
		name   string
		redis  error
		status int
		state  string
	}{
		{name: "all healthy", status: http.StatusOK, state: "healthy"},
		{name: "redis down", redis: errors.New("connection refused"), status: http.StatusServiceUnavailable, state: "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(s)
			h.checks = []dependencyCheck{
				{name: "database", ping: func(context.Context) error { return nil }},
				{name: "redis", ping: func(context.Context) error { return tt.redis }},
			}

			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)
			require.NoError(t, h.CheckHealth(c))

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Status string                       `json:"status"`
				Checks map[string]map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Status)
			assert.Equal(t, "healthy", body.Checks["database"]["status"])
		})
	}
}

func TestHealth(t *testing.T) {
	s := &server.Server{Config: &config.Config{App: config.AppConfig{Version: "1.2.3"}}}
	h := NewHealthHandler(s)
	h.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), rec)
	require.NoError(t, h.Health(c))

	assert.JSONEq(t, `{"status":"ok","timestamp":"2026-01-01T00:00:00Z","service":"classroom-api","version":"1.2.3"}`, rec.Body.String())
}
