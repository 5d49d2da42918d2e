// Package auth exposes session endpoints: the current session, sign out,
// and role assignment.
package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/pkg/routes"
)

// ErrForbidden is returned when a non-admin assigns the admin role.
var ErrForbidden = errors.New("only admins may grant the admin role")

// SessionInfo describes a verified session.
type SessionInfo struct {
	UID       string    `json:"uid"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RoleRequest assigns Role to the user the token was issued to.
type RoleRequest struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// RoleResponse carries a token reissued with the new role.
type RoleResponse struct {
	Session SessionInfo `json:"session"`
	Token   string      `json:"token"`
}

// MapHTTPStatus maps auth, identity and document store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if status := identity.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return docstore.MapHTTPStatus(err)
}

// Handler provides HTTP handlers for session management.
type Handler struct {
	identity *identity.System
	notify   notify.Sink
	logger   *slog.Logger
}

func NewHandler(ident *identity.System, sink notify.Sink, logger *slog.Logger) *Handler {
	return &Handler{
		identity: ident,
		notify:   sink,
		logger:   logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/auth",
		Description: "Session management",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/session", Handler: h.identity.Require(h.Session)},
			{Method: "POST", Pattern: "/signout", Handler: h.identity.Require(h.SignOut)},
			{Method: "POST", Pattern: "/roles", Handler: h.SetRole},
		},
	}
}

// Session handles GET /auth/session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, info(identity.FromContext(r.Context())))
}

// SignOut handles POST /auth/signout. The session is revoked before the
// cookie is cleared; a failed revocation is reported and the cookie kept.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), identity.FromContext(r.Context())); err != nil {
		h.notify.Notify(r.Context(), notify.Errorf("Sign out failed", err.Error()))
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	http.SetCookie(w, h.identity.ClearCookie())
	h.notify.Notify(r.Context(), notify.Successf("Signed out", "You have been signed out."))
	w.WriteHeader(http.StatusNoContent)
}

// SetRole handles POST /auth/roles. The body token is verified and the
// role recorded for its subject; a fresh token carrying the role is
// returned and set as the session cookie.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	target, err := h.identity.Verify(r.Context(), req.Token)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if req.Role == identity.RoleAdmin && target.Role() != identity.RoleAdmin {
		caller := identity.FromContext(r.Context())
		if caller == nil || caller.Role() != identity.RoleAdmin {
			handlers.RespondError(w, h.logger, MapHTTPStatus(ErrForbidden), ErrForbidden)
			return
		}
	}

	if err := h.identity.SetRole(r.Context(), target.UID(), req.Role); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	session, err := h.identity.Issue(r.Context(), target.UID())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	http.SetCookie(w, h.identity.Cookie(session))
	handlers.RespondJSON(w, http.StatusOK, RoleResponse{
		Session: info(session),
		Token:   session.Token,
	})
}

func info(s *identity.Session) SessionInfo {
	out := SessionInfo{
		UID:       s.UID(),
		Role:      s.Role(),
		SessionID: s.ID(),
	}
	if s.Claims.ExpiresAt != nil {
		out.ExpiresAt = s.Claims.ExpiresAt.Time.UTC()
	}
	return out
}
