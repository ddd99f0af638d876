// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents a client request to be forwarded to a backend.
// The context is tied to the inbound connection: when the client disconnects,
// the outbound call and any pending cache write are abandoned.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.ReadCloser
}

// ProxyResponse is the fully buffered reply produced by the forwarder.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// UpstreamResponse is a backend response with headers read early and the body
// still arriving as a stream. The caller is responsible for closing Body.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
