package gate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/notify"
)

// Resolver returns the session for r, or identity.ErrUnauthenticated.
type Resolver func(r *http.Request) (*identity.Session, error)

// Middleware enforces g on every request. Resolution failures are treated
// as unauthenticated. Verified sessions are stored on the request context.
func Middleware(g *Gate, resolve Resolver, sink notify.Sink, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "gate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := resolve(r)
			if err != nil {
				if !errors.Is(err, identity.ErrUnauthenticated) {
					logger.Warn("session rejected", "uri", r.RequestURI, "error", err)
				}
				session = nil
			}

			d := g.Decide(r.URL.RequestURI(), session)
			if d.Action == Redirect {
				if d.Notice != nil && sink != nil {
					sink.Notify(r.Context(), *d.Notice)
				}
				logger.Info("navigation redirected", "uri", r.URL.RequestURI(), "location", d.Location)
				http.Redirect(w, r, d.Location, http.StatusFound)
				return
			}

			if session != nil {
				r = r.WithContext(identity.WithSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}
