package companies

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/routes"
)

// Handler provides HTTP handlers for companies and their job postings.
type Handler struct {
	sys      System
	identity *identity.System
	logger   *slog.Logger
}

// NewHandler creates a new companies HTTP handler.
func NewHandler(sys System, ident *identity.System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:      sys,
		identity: ident,
		logger:   logger,
	}
}

// Routes returns the route group configuration for company endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/companies",
		Description: "Companies and their postings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.identity.Require(h.Create)},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.identity.Require(h.Update)},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.identity.Require(h.Delete)},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/jobs",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Page},
					{Method: "POST", Pattern: "", Handler: h.identity.Require(h.PostJob)},
					{Method: "DELETE", Pattern: "/{jobID}", Handler: h.identity.Require(h.RemoveJob)},
				},
			},
		},
	}
}

// List handles GET /companies with optional createdBy and name filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.List(r.Context(), FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /companies/{id}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Page handles GET /companies/{id}/jobs.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Page(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /companies. The caller becomes the creator.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	data, err := handlers.DecodeObject(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Create(r.Context(), identity.FromContext(r.Context()), data)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Update handles PATCH /companies/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := handlers.DecodeObject(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Update(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /companies/{id}, removing its jobs as well.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Delete(r.Context(), identity.FromContext(r.Context()), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PostJob handles POST /companies/{id}/jobs.
func (h *Handler) PostJob(w http.ResponseWriter, r *http.Request) {
	data, err := handlers.DecodeObject(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.PostJob(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"), data)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

// RemoveJob handles DELETE /companies/{id}/jobs/{jobID}.
func (h *Handler) RemoveJob(w http.ResponseWriter, r *http.Request) {
	err := h.sys.RemoveJob(r.Context(), identity.FromContext(r.Context()), r.PathValue("id"), r.PathValue("jobID"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
