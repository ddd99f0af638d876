// Package router decides which requests are proxy-eligible and rewrites their
// paths onto a backend base address.
package router

import "strings"

// Router matches request paths against the configured proxy prefix.
type Router struct {
	prefix string
}

// New creates a Router for the given path prefix, e.g. "/api".
func New(prefix string) *Router {
	return &Router{prefix: strings.TrimSuffix(prefix, "/")}
}

// Match reports whether path is proxy-eligible. Matching is segment-aware:
// with prefix "/api", "/api" and "/api/items" match but "/apifoo" does not.
func (r *Router) Match(path string) bool {
	return path == r.prefix || strings.HasPrefix(path, r.prefix+"/")
}

// Rewrite strips the prefix from path and appends the remainder to the backend
// base address. Backend addresses carry no trailing-slash guarantee, so the
// base is normalized before concatenation.
func (r *Router) Rewrite(addr, path string) string {
	remainder := strings.TrimPrefix(path, r.prefix)
	return strings.TrimSuffix(addr, "/") + remainder
}

// Prefix returns the configured proxy path prefix.
func (r *Router) Prefix() string {
	return r.prefix
}
