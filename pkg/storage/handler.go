package storage

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// Handler serves blobs read from sys. The request path, with any leading
// slash removed, is the blob key; mount it behind http.StripPrefix.
func Handler(sys System, logger *slog.Logger) http.Handler {
	logger = logger.With("handler", "storage")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		key := strings.TrimPrefix(r.URL.Path, "/")
		info, err := sys.Stat(r.Context(), key)
		if err != nil {
			status := MapHTTPStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("stat failed", "key", key, "error", err)
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		w.Header().Set("Content-Type", info.ContentType)
		w.Header().Set("Last-Modified", info.Updated.UTC().Format(http.TimeFormat))
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
			return
		}

		data, err := sys.Retrieve(r.Context(), key)
		if err != nil {
			status := MapHTTPStatus(err)
			logger.Error("retrieve failed", "key", key, "error", err)
			http.Error(w, http.StatusText(status), status)
			return
		}
		w.Write(data)
	})
}
