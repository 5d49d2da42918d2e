// Package app provides the web application module: gated page shells
// rendered from embedded templates.
package app

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/gate"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/middleware"
	"github.com/JaimeStill/job-board/pkg/module"
	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/pkg/web"
)

//go:embed server
var serverFS embed.FS

// Deps are the systems the app module navigates with.
type Deps struct {
	Gate     *gate.Gate
	Identity *identity.System
	Notify   notify.Sink
	Logger   *slog.Logger
}

// AuthData is the page data of the auth pages.
type AuthData struct {
	Redirect string
}

// SessionData is the page data of session pages.
type SessionData struct {
	UID  string
	Role string
}

// NewModule creates the app module mounted at basePath. Every navigation
// passes through the gate before a page renders.
func NewModule(basePath string, deps Deps) (*module.Module, error) {
	resume := func(r *http.Request) any {
		return AuthData{Redirect: deps.Gate.Resume(r)}
	}

	pages := []web.Page{
		{Route: "/{$}", Template: "home.html", Title: "Jobs", Bundle: "app", Data: sessionData},
		{Route: "/dashboard", Template: "dashboard.html", Title: "Dashboard", Bundle: "app", Data: sessionData},
		{Route: "/auth/login", Template: "auth/login.html", Title: "Sign in", Bundle: "auth", Data: resume},
		{Route: "/auth/register", Template: "auth/register.html", Title: "Create account", Bundle: "auth", Data: resume},
		{Route: "/auth/forgot-password", Template: "auth/forgot-password.html", Title: "Forgot password", Bundle: "auth", Data: resume},
		{Route: "/auth/reset-password", Template: "auth/reset-password.html", Title: "Reset password", Bundle: "auth", Data: resume},
	}
	notFound := web.Page{Template: "404.html", Title: "Not Found", Bundle: "app"}

	set, err := web.NewPages(serverFS, web.Options{
		LayoutGlob: "server/layouts/*.html",
		ViewDir:    "server/views",
		Layout:     "app.html",
		BasePath:   basePath,
		Logger:     deps.Logger,
	}, append(pages, notFound)...)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	for _, page := range pages {
		mux.HandleFunc("GET "+page.Route, set.Handler(page))
	}
	mux.HandleFunc("/", set.StatusHandler(notFound, http.StatusNotFound))

	logger := deps.Logger.With("module", "app")

	m := module.New(basePath, mux)
	m.Use(middleware.TrimSlash())
	m.Use(middleware.Logger(logger))
	m.Use(gate.Middleware(deps.Gate, deps.Identity.Current, deps.Notify, logger))
	return m, nil
}

func sessionData(r *http.Request) any {
	s := identity.FromContext(r.Context())
	if s == nil {
		return nil
	}
	return SessionData{UID: s.UID(), Role: s.Role()}
}
