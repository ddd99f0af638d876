// Package service implements the core forwarding and caching logic.
package service

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"gateproxy/internal/cache"
	"gateproxy/internal/client"
	"gateproxy/internal/metrics"
	"gateproxy/internal/model"
	"gateproxy/internal/pool"
	"gateproxy/internal/router"
)

// Forwarder orchestrates a proxy-eligible request: cache lookup, backend
// selection, the outbound call, and cache population.
type Forwarder struct {
	client  *client.Client
	cache   *cache.ResponseCache
	router  *router.Router
	pool    *pool.Pool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewForwarder creates a Forwarder. The metrics parameter is optional; pass
// nil to disable cache and backend-load metrics recording.
func NewForwarder(c *client.Client, rc *cache.ResponseCache, r *router.Router, p *pool.Pool, logger *slog.Logger, m *metrics.Metrics) *Forwarder {
	return &Forwarder{
		client:  c,
		cache:   rc,
		router:  r,
		pool:    p,
		logger:  logger.With("component", "forwarder"),
		metrics: m,
	}
}

// Forward handles one proxy-eligible request. Cached paths are replayed with
// status 208 Already Reported and the stored bytes; the status that originally
// produced the entry is not preserved.
//
// On a miss the least-loaded backend is selected, the request is forwarded
// with the inbound context (client disconnect cancels the backend call), the
// body is fully buffered, and the bytes are stored under the original inbound
// path. Any completed exchange is cached, whatever its status: a backend 404
// or 500 body is stored and replayed as 208 like any other. The backend's
// in-flight accounting is released on every exit path. Transport failures are
// never retried and never cached.
func (f *Forwarder) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	if body, ok := f.cache.TryGet(pr.Ctx, pr.Path); ok {
		if f.metrics != nil {
			f.metrics.CacheHits.Inc()
		}
		f.logger.Debug("cache hit", "path", pr.Path)
		return &model.ProxyResponse{
			StatusCode: http.StatusAlreadyReported,
			Header:     make(http.Header),
			Body:       body,
		}, nil
	}
	if f.metrics != nil {
		f.metrics.CacheMisses.Inc()
	}

	addr, err := f.pool.SelectLeastLoaded()
	if err != nil {
		return nil, err
	}

	f.acquire(addr)
	defer f.release(addr)

	method := canonicalMethod(pr.Method)
	target := f.router.Rewrite(addr, pr.Path)
	if q := pr.Query.Encode(); q != "" {
		target += "?" + q
	}

	var reqBody io.Reader
	if carriesBody(method) {
		reqBody = pr.Body
	}

	f.logger.Debug("forwarding request",
		"method", method,
		"path", pr.Path,
		"backend", addr,
	)

	resp, err := f.client.DoStream(pr.Ctx, method, target, copyRequestHeaders(method, pr.Header), reqBody)
	if err != nil {
		return nil, fmt.Errorf("forward to backend %s: %w", addr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	header := copyResponseHeaders(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	f.cache.Put(pr.Ctx, pr.Path, body)

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
	}, nil
}

func (f *Forwarder) acquire(addr string) {
	f.pool.Acquire(addr)
	if f.metrics != nil {
		f.metrics.BackendInFlight.WithLabelValues(addr).Inc()
	}
}

func (f *Forwarder) release(addr string) {
	f.pool.Release(addr)
	if f.metrics != nil {
		f.metrics.BackendInFlight.WithLabelValues(addr).Dec()
	}
}
