package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gateproxy/internal/config"
	"gateproxy/internal/pool"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	pool    *pool.Pool
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, p *pool.Pool, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, pool: p, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns gateway status information, including each backend's
// current in-flight request count.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":        "ok",
		"version":       string(h.version),
		"path_prefix":   h.cfg.Proxy.PathPrefix,
		"backend_loads": h.pool.Loads(),
	})
}
