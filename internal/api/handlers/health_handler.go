package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// pingTimeout bounds each dependency check
const pingTimeout = 2 * time.Second

// Pinger checks that a dependency answers
type Pinger func(ctx context.Context) error

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	database  Pinger
	scheduler SchedulerControl
}

// NewHealthHandler creates a new HealthHandler. scheduler may be nil.
func NewHealthHandler(database Pinger, scheduler SchedulerControl) *HealthHandler {
	return &HealthHandler{database: database, scheduler: scheduler}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (h *HealthHandler) pingDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.database(ctx)
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	if err := h.pingDatabase(c.Request().Context()); err != nil {
		services["database"] = "unhealthy"
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	switch {
	case h.scheduler == nil:
		services["scheduler"] = "disabled"
	case h.scheduler.IsRunning():
		services["scheduler"] = "running"
	default:
		services["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	if err := h.pingDatabase(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
