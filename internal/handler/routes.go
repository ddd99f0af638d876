package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gateproxy/internal/config"
	"gateproxy/internal/metrics"
)

// RegisterRoutes wires the service routes onto the Echo instance. Proxying
// itself is a middleware (see Gateway.Middleware), so these are the routes the
// gateway falls through to.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, health *HealthHandler, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}
}
