package service

import (
	"net/http"
	"strings"
)

// bodilessMethods lists verbs that conventionally carry no request body.
// Their inbound headers are not copied onto the outbound request either,
// since they only describe a body that is not sent.
var bodilessMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodHead:   true,
	http.MethodDelete: true,
	http.MethodTrace:  true,
}

// canonicalMethod maps standard verbs to their canonical upper-case form and
// passes unrecognized verbs through verbatim.
func canonicalMethod(method string) string {
	upper := strings.ToUpper(method)
	switch upper {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect,
		http.MethodOptions, http.MethodTrace:
		return upper
	}
	return method
}

// carriesBody reports whether requests with this method get the inbound body
// attached when forwarded.
func carriesBody(method string) bool {
	return !bodilessMethods[method]
}

// copyRequestHeaders returns the header set for the outbound request: a copy
// of all inbound headers when the method carries a body, an empty set otherwise.
func copyRequestHeaders(method string, src http.Header) http.Header {
	dst := make(http.Header, len(src))
	if !carriesBody(method) {
		return dst
	}
	for key, vals := range src {
		dst[key] = append([]string(nil), vals...)
	}
	return dst
}

// copyResponseHeaders returns a copy of the backend response headers with
// Transfer-Encoding removed: the proxy always replies with a fully buffered
// body, so a backend-declared transfer encoding is invalid on the reply.
func copyResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[key] = append([]string(nil), vals...)
	}
	dst.Del("Transfer-Encoding")
	return dst
}
