// Package module mounts self-contained HTTP handlers under single-level
// path prefixes, each with its own middleware chain.
package module

import (
	"net/http"
	"strings"
)

// Module is an http.Handler served under a fixed prefix such as "/api".
// Middleware observes the full request path; the wrapped handler receives
// the path with the prefix stripped.
type Module struct {
	prefix     string
	handler    http.Handler
	middleware []func(http.Handler) http.Handler
}

// New creates a Module. It panics when prefix is not a single path segment
// with a leading slash.
func New(prefix string, handler http.Handler) *Module {
	if err := validatePrefix(prefix); err != "" {
		panic("module: invalid prefix " + `"` + prefix + `": ` + err)
	}
	return &Module{
		prefix:  prefix,
		handler: handler,
	}
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first registered middleware is outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware = append(m.middleware, mw)
}

// Handler returns the prefix-stripping handler with all middleware applied.
func (m *Module) Handler() http.Handler {
	h := m.strip(m.handler)
	for i := len(m.middleware) - 1; i >= 0; i-- {
		h = m.middleware[i](h)
	}
	return h
}

// Serve dispatches r through Handler.
func (m *Module) Serve(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}

func (m *Module) strip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, m.prefix) {
			next.ServeHTTP(w, r)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, m.prefix)
		if path == "" {
			path = "/"
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = path
		if r.URL.RawPath != "" {
			r2.URL.RawPath = strings.TrimPrefix(r.URL.RawPath, m.prefix)
		}
		next.ServeHTTP(w, r2)
	})
}

func validatePrefix(prefix string) string {
	if prefix == "" {
		return "empty"
	}
	if !strings.HasPrefix(prefix, "/") {
		return "missing leading slash"
	}
	if strings.Count(prefix, "/") != 1 {
		return "must be a single path segment"
	}
	return ""
}
