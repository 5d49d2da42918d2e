package jobs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/routes"
)

// Handler provides HTTP handlers for job listings and writes.
type Handler struct {
	sys      System
	identity *identity.System
	maxLimit int
	logger   *slog.Logger
}

// NewHandler creates a new jobs HTTP handler.
// maxLimit caps the number of jobs a single listing returns.
func NewHandler(sys System, ident *identity.System, maxLimit int, logger *slog.Logger) *Handler {
	return &Handler{
		sys:      sys,
		identity: ident,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

// Routes returns the route group configuration for job endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/jobs",
		Description: "Job postings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stream", Handler: h.Stream},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.identity.Require(h.Create)},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.identity.Require(h.Update)},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.identity.Require(h.Delete)},
		},
	}
}

// List handles GET /jobs with optional companyID, type, remote, status,
// country and limit query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.List(r.Context(), FiltersFromQuery(r.URL.Query(), h.maxLimit))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find handles GET /jobs/{id}.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create handles POST /jobs. The body names its company in companyID.
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

// Update handles PATCH /jobs/{id} with a partial job body.
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

// Delete handles DELETE /jobs/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Delete(r.Context(), identity.FromContext(r.Context()), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /jobs/stream: a server-sent event stream that emits
// the filtered listing on connect and again after every change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	view, err := h.sys.Watch(r.Context(), FiltersFromQuery(r.URL.Query(), h.maxLimit))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer view.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if !h.writeEvent(w, view.Data()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case docs, ok := <-view.Updates():
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
				flush(w)
				return
			}
			if !h.writeEvent(w, docs) {
				return
			}
		}
	}
}

func (h *Handler) writeEvent(w http.ResponseWriter, docs []docstore.Document) bool {
	jobs, err := Decode(docs)
	if err != nil {
		h.logger.Error("failed to decode jobs", "error", err)
		return false
	}

	data, err := json.Marshal(jobs)
	if err != nil {
		h.logger.Error("failed to marshal jobs", "error", err)
		return false
	}

	if _, err := fmt.Fprintf(w, "event: jobs\ndata: %s\n\n", data); err != nil {
		return false
	}
	flush(w)
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
