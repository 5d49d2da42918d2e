package identity

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/handlers"
)

// Authenticate attaches the verified session to the request context.
// Requests without a token pass through anonymously; requests with an
// invalid or revoked token are rejected with 401.
func (s *System) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Current(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), session))
		case errors.Is(err, ErrUnauthenticated):
		default:
			handlers.RespondError(w, s.logger, MapHTTPStatus(err), err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests that Authenticate left anonymous.
func (s *System) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			handlers.RespondError(w, s.logger, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		next(w, r)
	}
}
