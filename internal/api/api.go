// Package api assembles the JSON API module: domain systems, their route
// groups, and the module middleware chain.
package api

import (
	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/internal/infrastructure"
	"github.com/JaimeStill/job-board/pkg/middleware"
	"github.com/JaimeStill/job-board/pkg/module"
	"github.com/JaimeStill/job-board/pkg/routes"
)

// NewModule creates the API module mounted at cfg.API.BasePath.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(infra)
	domain := NewDomain(runtime)

	r := routes.New()
	registerRoutes(r, &cfg.API, runtime, domain)

	m := module.New(cfg.API.BasePath, r.Build())
	m.Use(middleware.TrimSlash())
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Identity.Authenticate)

	return m, nil
}
