package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/job-board/internal/auth"
	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/docstore/memory"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/pkg/routes"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flakyStore rejects writes to the revoked sessions collection.
type flakyStore struct {
	*memory.Store
}

func (s flakyStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if collection == identity.RevokedCollection {
		return fmt.Errorf("%w: backend offline", docstore.ErrTransient)
	}
	return s.Store.Set(ctx, collection, id, data)
}

type env struct {
	identity *identity.System
	recorder *notify.Recorder
	handler  http.Handler
}

func newEnv(t *testing.T, store docstore.Store) env {
	t.Helper()

	docs := docstore.New(store, testLogger())
	t.Cleanup(func() { docs.Close() })

	cfg := &identity.Config{Secret: "auth-test-secret-0123456789abcdefg"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	ident := identity.New(cfg, docs, testLogger())
	rec := &notify.Recorder{}

	r := routes.New()
	r.RegisterGroup(auth.NewHandler(ident, rec, testLogger()).Routes())

	return env{identity: ident, recorder: rec, handler: ident.Authenticate(r.Build())}
}

func (e env) issue(t *testing.T, uid string) *identity.Session {
	t.Helper()
	s, err := e.identity.Issue(context.Background(), uid)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return s
}

func (e env) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestSession(t *testing.T) {
	e := newEnv(t, memory.New())
	s := e.issue(t, "u1")

	if w := e.do(http.MethodGet, "/auth/session", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}

	w := e.do(http.MethodGet, "/auth/session", s.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var info auth.SessionInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if info.UID != "u1" || info.SessionID != s.ID() {
		t.Errorf("info = %+v", info)
	}
}

func TestSignOut(t *testing.T) {
	e := newEnv(t, memory.New())
	s := e.issue(t, "u1")

	w := e.do(http.MethodPost, "/auth/signout", s.Token, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be cleared")
	}

	if w := e.do(http.MethodGet, "/auth/session", s.Token, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", w.Code)
	}
}

func TestSignOut_PropagatesFailure(t *testing.T) {
	e := newEnv(t, flakyStore{memory.New()})
	s := e.issue(t, "u1")

	w := e.do(http.MethodPost, "/auth/signout", s.Token, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("cookie should be kept when sign out fails")
	}

	notes := e.recorder.All()
	if len(notes) != 1 || notes[0].Severity != notify.Error {
		t.Errorf("notifications = %+v, want one error", notes)
	}

	if w := e.do(http.MethodGet, "/auth/session", s.Token, ""); w.Code != http.StatusOK {
		t.Errorf("session after failed sign out status = %d, want 200", w.Code)
	}
}

func TestSetRole(t *testing.T) {
	e := newEnv(t, memory.New())
	user := e.issue(t, "u1")

	if err := e.identity.SetRole(context.Background(), "root", identity.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	admin := e.issue(t, "root")

	body := func(token, role string) string {
		b, _ := json.Marshal(auth.RoleRequest{Token: token, Role: role})
		return string(b)
	}

	tests := []struct {
		name   string
		caller string
		body   string
		status int
		role   string
	}{
		{"self assign employer", "", body(user.Token, "employer"), http.StatusOK, "employer"},
		{"bad token", "", body("garbage", "employer"), http.StatusUnauthorized, ""},
		{"invalid role", "", body(user.Token, "two words"), http.StatusBadRequest, ""},
		{"self assign admin", user.Token, body(user.Token, identity.RoleAdmin), http.StatusForbidden, ""},
		{"admin grants admin", admin.Token, body(user.Token, identity.RoleAdmin), http.StatusOK, identity.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/auth/roles", tt.caller, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var resp auth.RoleResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if resp.Session.Role != tt.role {
				t.Errorf("role = %q, want %q", resp.Session.Role, tt.role)
			}

			verified, err := e.identity.Verify(context.Background(), resp.Token)
			if err != nil {
				t.Fatalf("Verify reissued token failed: %v", err)
			}
			if verified.Role() != tt.role {
				t.Errorf("token role = %q, want %q", verified.Role(), tt.role)
			}
		})
	}
}
