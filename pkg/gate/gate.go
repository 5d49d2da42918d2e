// Package gate decides whether a navigation may proceed given the caller's
// session, and applies those decisions as HTTP redirects.
package gate

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/notify"
)

// Action is the outcome of a navigation check.
type Action int

const (
	Proceed Action = iota
	Redirect
)

// Decision tells the caller whether to proceed or where to redirect.
// Notice, when set, explains a denial to the user.
type Decision struct {
	Action   Action
	Location string
	Notice   *notify.Notification
}

// Gate evaluates navigation against Config.
type Gate struct {
	cfg *Config
}

func New(cfg *Config) *Gate {
	return &Gate{cfg: cfg}
}

// Decide evaluates a navigation to target, a request URI, for session,
// which is nil when unauthenticated.
//
// Unauthenticated navigation to a non-public path redirects to the login
// path with the original target in the redirect parameter. Authenticated
// navigation to a public auth path redirects home. Role areas redirect
// sessions lacking a listed role to the area fallback.
func (g *Gate) Decide(target string, session *identity.Session) Decision {
	path := target
	if u, err := url.ParseRequestURI(target); err == nil {
		path = u.Path
	}

	if session == nil {
		if g.cfg.isPublic(path) {
			return Decision{Action: Proceed}
		}
		q := url.Values{}
		q.Set(g.cfg.RedirectParam, target)
		return Decision{Action: Redirect, Location: g.cfg.LoginPath + "?" + q.Encode()}
	}

	if g.cfg.isPublic(path) {
		return Decision{Action: Redirect, Location: g.cfg.Home}
	}

	for _, a := range g.cfg.Areas {
		if !within(path, a.Prefix) {
			continue
		}
		if !slices.Contains(a.Roles, session.Role()) {
			n := notify.Errorf("Unauthorized", "You are not authorized to access this page")
			return Decision{Action: Redirect, Location: a.Fallback, Notice: &n}
		}
	}

	return Decision{Action: Proceed}
}

// Resume returns the local path carried in r's redirect parameter, or the
// configured home when it is missing or points off-site.
func (g *Gate) Resume(r *http.Request) string {
	next := r.URL.Query().Get(g.cfg.RedirectParam)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return g.cfg.Home
	}
	if u, err := url.ParseRequestURI(next); err != nil || u.Host != "" {
		return g.cfg.Home
	}
	return next
}

func within(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
