package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"gateproxy/internal/cache"
	"gateproxy/internal/client"
	"gateproxy/internal/config"
	"gateproxy/internal/handler"
	"gateproxy/internal/metrics"
	"gateproxy/internal/middleware"
	"gateproxy/internal/pool"
	"gateproxy/internal/router"
	"gateproxy/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("gateproxy"),
		kong.Description("Caching, load-balancing reverse proxy for backend API pools."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			newMetrics,
			newPool,
			newRouter,
			newResponseCache,
			newEcho,
			client.New,
			service.NewForwarder,
			handler.NewGateway,
			handler.NewHealthHandler,
		),
		fx.Invoke(handler.RegisterRoutes, attachGateway, warnConfigPermissions, startServer),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newMetrics(cfg *config.Config) *metrics.Metrics {
	return metrics.New(cfg.Proxy.PathPrefix)
}

func newPool(cfg *config.Config) *pool.Pool {
	return pool.New(cfg.Proxy.Backends)
}

func newRouter(cfg *config.Config) *router.Router {
	return router.New(cfg.Proxy.PathPrefix)
}

func newResponseCache(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) *cache.ResponseCache {
	if !cfg.Cache.Enabled {
		logger.Info("response cache disabled; every request is forwarded")
		return cache.New(nil, logger)
	}

	store := cache.NewRedisStore(&cfg.Cache)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return store.Close()
		},
	})
	logger.Info("response cache enabled", "redis_addr", cfg.Cache.RedisAddr, "ttl_seconds", cfg.Cache.TTLSeconds)
	return cache.New(store, logger)
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks.
	e.Server.ReadTimeout = 30 * time.Second
	// WriteTimeout is disabled (0) to avoid cutting off valid long-running
	// responses. Protection is provided by the backend client timeout,
	// ReadTimeout, and IdleTimeout.
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.MetricsMiddleware(m))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(middleware.SecurityHeaders())

	if cfg.Server.RateLimit.Enabled {
		store := echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit.RequestsPerSecond))
		e.Use(echomw.RateLimiter(store))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}

// attachGateway installs the proxy middleware after the ambient middleware so
// eligible requests are intercepted before route matching.
func attachGateway(e *echo.Echo, gw *handler.Gateway, cfg *config.Config, logger *slog.Logger) {
	e.Use(gw.Middleware())
	logger.Info("gateway attached",
		"path_prefix", cfg.Proxy.PathPrefix,
		"backends", cfg.Proxy.Backends,
	)
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server", "addr", addr)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
