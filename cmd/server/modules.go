package main

import (
	"net/http"

	"github.com/JaimeStill/job-board/internal/api"
	"github.com/JaimeStill/job-board/internal/config"
	"github.com/JaimeStill/job-board/internal/infrastructure"
	"github.com/JaimeStill/job-board/pkg/gate"
	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/module"
	"github.com/JaimeStill/job-board/pkg/storage"
	"github.com/JaimeStill/job-board/web/app"
)

// Modules are the prefix-mounted parts of the service.
type Modules struct {
	API *module.Module
	App *module.Module
}

// NewModules builds the API and page modules over infra.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	appModule, err := app.NewModule("/app", app.Deps{
		Gate:     gate.New(&cfg.Gate),
		Identity: infra.Identity,
		Notify:   infra.Notify,
		Logger:   infra.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
		App: appModule,
	}, nil
}

// Mount registers every module on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
}

// Status is the body of the health and readiness probes.
type Status struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	DocStore string `json:"docstore"`
	Storage  string `json:"storage"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	status := func(state string) Status {
		return Status{
			Status:   state,
			Version:  cfg.Version,
			DocStore: string(cfg.DocStore.Backend),
			Storage:  string(cfg.Storage.Backend),
		}
	}

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, status("ok"))
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status("starting"))
			return
		}
		handlers.RespondJSON(w, http.StatusOK, status("ready"))
	})

	router.HandleNative("GET /storage/", http.StripPrefix("/storage", storage.Handler(infra.Storage, infra.Logger)).ServeHTTP)

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app", http.StatusFound)
	})

	return router
}
