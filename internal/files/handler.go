package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/routes"
	"github.com/JaimeStill/job-board/pkg/storage"
)

// Transfer names the source and destination of a move or copy.
type Transfer struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Handler provides HTTP handlers over the blob access layer.
type Handler struct {
	blobs    *storage.Blobs
	identity *identity.System
	logger   *slog.Logger
}

func NewHandler(blobs *storage.Blobs, ident *identity.System, logger *slog.Logger) *Handler {
	return &Handler{
		blobs:    blobs,
		identity: ident,
		logger:   logger,
	}
}

// Routes returns the route group for file endpoints. Reads are public;
// writes need a session.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/files",
		Description: "Blob uploads and downloads",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/url/{path...}", Handler: h.URL},
			{Method: "GET", Pattern: "/{path...}", Handler: h.Stat},
			{Method: "POST", Pattern: "/move", Handler: h.identity.Require(h.Move)},
			{Method: "POST", Pattern: "/copy", Handler: h.identity.Require(h.Copy)},
			{Method: "POST", Pattern: "/{path...}", Handler: h.identity.Require(h.Upload)},
			{Method: "DELETE", Pattern: "/{path...}", Handler: h.identity.Require(h.Delete)},
		},
	}
}

// Upload handles POST /files/{path...} with a multipart "file" field.
// Clients that accept text/event-stream receive progress events followed
// by a complete or error event; others receive the metadata once the
// upload finishes.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = ErrMissingFile
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer file.Close()

	var opts []storage.UploadOption
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		opts = append(opts, storage.WithContentType(ct))
	}

	upload := h.blobs.Upload(r.Context(), r.PathValue("path"), file, header.Size, opts...)

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		meta, err := upload.Wait(r.Context())
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusCreated, meta)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for p := range upload.Progress() {
		writeEvent(w, "progress", p)
	}

	if err := upload.Err(); err != nil {
		h.logger.Warn("upload stream failed", "path", upload.Path(), "error", err)
		writeEvent(w, "error", handlers.ErrorBody{Error: err.Error()})
		return
	}
	writeEvent(w, "complete", upload.Metadata())
}

// URL handles GET /files/url/{path...}.
func (h *Handler) URL(w http.ResponseWriter, r *http.Request) {
	u, err := h.blobs.URL(r.Context(), r.PathValue("path"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"url": u})
}

// Stat handles GET /files/{path...}.
func (h *Handler) Stat(w http.ResponseWriter, r *http.Request) {
	meta, err := h.blobs.Stat(r.Context(), r.PathValue("path"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, meta)
}

// Delete handles DELETE /files/{path...}. Deleting an absent file succeeds.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blobs.Delete(r.Context(), r.PathValue("path")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Move handles POST /files/move.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.blobs.Move)
}

// Copy handles POST /files/copy.
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, h.blobs.Copy)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, from, to string) (*storage.Metadata, error)) {
	var t Transfer
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if t.From == "" || t.To == "" {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrMissingPath), ErrMissingPath)
		return
	}

	meta, err := fn(r.Context(), t.From, t.To)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, meta)
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
