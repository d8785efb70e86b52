package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/classroom/internal/config"
	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/server"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 5 * time.Second

// dependencyCheck pings one backing service.
type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

type HealthHandler struct {
	Handler
	checks []dependencyCheck
	now    func() time.Time
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	var checks []dependencyCheck
	if s.DB != nil {
		checks = append(checks, dependencyCheck{name: "database", ping: s.DB.Pool.Ping})
	}
	if s.Redis != nil {
		checks = append(checks, dependencyCheck{name: "redis", ping: func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		}})
	}

	return &HealthHandler{
		Handler: NewHandler(s),
		checks:  checks,
		now:     time.Now,
	}
}

// Health is the liveness probe of the API.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": h.now().UTC(),
		"service":   config.ServiceName,
		"version":   h.server.Config.App.Version,
	})
}

// CheckHealth pings every dependency and answers 503 when one of them fails.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{}, len(h.checks))
	isHealthy := true

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	for _, check := range h.checks {
		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)

		if err != nil {
			isHealthy = false
			checks[check.name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}

			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordFailure(check.name, elapsed, err)
			continue
		}

		checks[check.name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   h.now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", map[string]interface{}{
		"check_type":       check,
		"operation":        "health_check",
		"response_time_ms": elapsed.Milliseconds(),
		"error_message":    err.Error(),
	})
}
