package jobs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/validation"
)

// Domain errors for job operations.
var (
	ErrNotFound       = errors.New("job not found")
	ErrUnknownCompany = errors.New("company not found")
	ErrForbidden      = errors.New("job belongs to another user's company")
)

// MapHTTPStatus maps domain, validation, identity and document store errors
// to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownCompany):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, validation.ErrValidation):
		return validation.MapHTTPStatus(err)
	case errors.Is(err, identity.ErrUnauthenticated):
		return identity.MapHTTPStatus(err)
	}
	return docstore.MapHTTPStatus(err)
}
