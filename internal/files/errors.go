// Package files exposes the blob access layer over HTTP: uploads with
// progress, download URLs, metadata, deletes, moves and copies.
package files

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/storage"
)

var (
	ErrMissingFile = errors.New("multipart field \"file\" is required")
	ErrMissingPath = errors.New("from and to paths are required")
)

// MapHTTPStatus maps request, identity and storage errors to HTTP status
// codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingFile), errors.Is(err, ErrMissingPath):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUnauthenticated):
		return identity.MapHTTPStatus(err)
	}
	return storage.MapHTTPStatus(err)
}
