package api

import (
	"github.com/JaimeStill/job-board/internal/auth"
	"github.com/JaimeStill/job-board/internal/companies"
	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/internal/files"
	"github.com/JaimeStill/job-board/internal/jobs"
	"github.com/JaimeStill/job-board/pkg/routes"
)

func registerRoutes(r *routes.System, cfg *config.APIConfig, runtime *Runtime, domain *Domain) {
	jobsHandler := jobs.NewHandler(domain.Jobs, runtime.Identity, cfg.MaxListLimit, runtime.Logger)
	companiesHandler := companies.NewHandler(domain.Companies, runtime.Identity, runtime.Logger)
	filesHandler := files.NewHandler(runtime.Blobs, runtime.Identity, runtime.Logger)
	authHandler := auth.NewHandler(runtime.Identity, runtime.Notify, runtime.Logger)

	r.RegisterGroup(
		jobsHandler.Routes(),
		companiesHandler.Routes(),
		filesHandler.Routes(),
		authHandler.Routes(),
	)
}
