// Package routes provides HTTP route registration and handler building.
package routes

import (
	"net/http"
	"sort"
)

// System collects routes and groups and builds a ServeMux from them.
type System struct {
	routes []Route
	groups []Group
}

// New creates an empty route system.
func New() *System {
	return &System{}
}

// Groups returns the registered groups in registration order.
func (s *System) Groups() []Group {
	return s.groups
}

// RegisterRoute adds a top-level route.
func (s *System) RegisterRoute(route Route) {
	s.routes = append(s.routes, route)
}

// RegisterGroup adds a route group.
func (s *System) RegisterGroup(groups ...Group) {
	s.groups = append(s.groups, groups...)
}

// Patterns lists every "METHOD /path" pattern Build would register, sorted.
func (s *System) Patterns() []string {
	var out []string
	for _, route := range s.routes {
		out = append(out, route.Method+" "+route.Pattern)
	}
	for _, group := range s.groups {
		walk("", group, func(pattern string, _ http.HandlerFunc) {
			out = append(out, pattern)
		})
	}
	sort.Strings(out)
	return out
}

// Build constructs an http.Handler from all registered routes and groups.
// Group prefixes nest: a child's prefix is appended to its parent's.
func (s *System) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range s.routes {
		mux.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}

	for _, group := range s.groups {
		walk("", group, func(pattern string, h http.HandlerFunc) {
			mux.HandleFunc(pattern, h)
		})
	}

	return mux
}

func walk(parentPrefix string, group Group, register func(string, http.HandlerFunc)) {
	prefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		register(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		walk(prefix, child, register)
	}
}
