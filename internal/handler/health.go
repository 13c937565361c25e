package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/bookshelf/internal/middleware"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports the status of the database and, when configured, of
// Redis. Which checks run is set by observability.health_checks.
//
// It returns:
// - 200 OK if all required checks pass
// - 503 Service Unavailable if the database check fails
//
// Redis failures are reported but do not make the service unhealthy, since
// only rate limiting and background jobs depend on it.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	cfg := h.server.Config.Observability.HealthChecks

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{})
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	if cfg.Has("database") {
		check, ok := h.runCheck(logger, cfg.Timeout, "database", h.server.DB.Ping)
		stats := h.server.DB.Stats()
		check["pool"] = map[string]interface{}{
			"max_conns": stats.MaxConns,
			"open":      stats.TotalConns,
			"in_use":    stats.InUse,
			"idle":      stats.Idle,
		}
		checks["database"] = check
		isHealthy = isHealthy && ok
	}

	if cfg.Has("redis") && h.server.Redis != nil {
		checks["redis"], _ = h.runCheck(logger, cfg.Timeout, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// runCheck pings one dependency. The check runs on a fresh context so a
// client hanging up does not turn into a failed check.
func (h *HealthHandler) runCheck(
	logger zerolog.Logger,
	timeout time.Duration,
	name string,
	ping func(ctx context.Context) error,
) (map[string]interface{}, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	checkStart := time.Now()
	err := ping(ctx)
	took := time.Since(checkStart)

	if err != nil {
		logger.Error().
			Err(err).
			Dur("response_time", took).
			Msgf("%s health check failed", name)

		h.recordHealthCheckError(map[string]interface{}{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": took.Milliseconds(),
			"error_message":    err.Error(),
		})

		return map[string]interface{}{
			"status":        "unhealthy",
			"response_time": took.String(),
			"error":         err.Error(),
		}, false
	}

	return map[string]interface{}{
		"status":        "healthy",
		"response_time": took.String(),
	}, true
}

func (h *HealthHandler) recordHealthCheckError(attrs map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
