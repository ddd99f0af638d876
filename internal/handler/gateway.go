// Package handler wires the proxy core onto the Echo server.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"gateproxy/internal/model"
	"gateproxy/internal/pool"
	"gateproxy/internal/router"
	"gateproxy/internal/service"
)

// Gateway proxies eligible requests and hands everything else to the next
// handler in the chain.
type Gateway struct {
	forwarder *service.Forwarder
	router    *router.Router
	logger    *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(f *service.Forwarder, r *router.Router, logger *slog.Logger) *Gateway {
	return &Gateway{
		forwarder: f,
		router:    r,
		logger:    logger.With("component", "gateway"),
	}
}

// Middleware returns the Echo middleware implementing the gateway. Requests
// whose path does not match the proxy prefix fall through to next without
// touching the cache or the backend pool.
func (g *Gateway) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !g.router.Match(req.URL.Path) {
				return next(c)
			}

			pr := &model.ProxyRequest{
				Ctx:    req.Context(),
				Method: req.Method,
				Path:   req.URL.Path,
				Query:  req.URL.Query(),
				Header: req.Header,
				Body:   req.Body,
			}

			resp, err := g.forwarder.Forward(pr)
			if err != nil {
				return g.mapError(c, err)
			}

			header := c.Response().Header()
			for key, vals := range resp.Header {
				for _, v := range vals {
					header.Add(key, v)
				}
			}

			c.Response().WriteHeader(resp.StatusCode)
			if _, err := c.Response().Write(resp.Body); err != nil {
				g.logger.Error("writing response body",
					"err", err,
					"path", req.URL.Path,
				)
			}
			return nil
		}
	}
}

func (g *Gateway) mapError(c echo.Context, err error) error {
	g.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, pool.ErrNoBackendAvailable) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "no backend available",
		})
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "backend request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "backend host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "backend connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "backend request failed",
	})
}
