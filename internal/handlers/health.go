package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/linebridge/bridge/internal/healthcheck"
)

// SnapshotSource serves the latest health check results.
type SnapshotSource interface {
	Snapshot() healthcheck.Snapshot
}

// HealthHandler serves liveness and the latest token checks.
type HealthHandler struct {
	logger *slog.Logger
	source SnapshotSource
}

func NewHealthHandler(log *slog.Logger, source SnapshotSource) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{logger: log.With(slog.String("handler", "health")), source: source}
}

func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.HealthHead)
	e.GET("/health", h.Health)
}

func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HealthHandler) HealthHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Health answers 503 when any check errored, 200 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.source == nil {
		return c.JSON(http.StatusOK, healthcheck.Snapshot{Status: healthcheck.StatusUnknown, Checks: []healthcheck.CheckResult{}})
	}
	snap := h.source.Snapshot()
	status := http.StatusOK
	if snap.Status == healthcheck.StatusError {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, snap)
}
