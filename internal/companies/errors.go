package companies

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/job-board/internal/jobs"
)

// Domain errors for company operations.
var (
	ErrNotFound  = errors.New("company not found")
	ErrForbidden = errors.New("company belongs to another user")
)

// MapHTTPStatus maps domain errors to HTTP status codes, deferring to the
// jobs mapping for everything else.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return jobs.MapHTTPStatus(err)
}
