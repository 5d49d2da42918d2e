package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/docstore/memory"
	"github.com/JaimeStill/job-board/pkg/gate"
	"github.com/JaimeStill/job-board/pkg/identity"
	"github.com/JaimeStill/job-board/pkg/module"
	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/web/app"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestModule(t *testing.T) {
	docs := docstore.New(memory.New(), testLogger())
	t.Cleanup(func() { docs.Close() })

	idCfg := &identity.Config{Secret: "app-test-secret-0123456789abcdefgh"}
	if err := idCfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	ident := identity.New(idCfg, docs, testLogger())

	gateCfg := &gate.Config{}
	if err := gateCfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	m, err := app.NewModule("/app", app.Deps{
		Gate:     gate.New(gateCfg),
		Identity: ident,
		Notify:   &notify.Recorder{},
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("NewModule failed: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)

	ctx := context.Background()
	if err := ident.SetRole(ctx, "root", identity.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	admin, err := ident.Issue(ctx, "root")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	user, err := ident.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name     string
		target   string
		session  *identity.Session
		status   int
		location string
		contains string
	}{
		{"home anonymous", "/app", nil, http.StatusFound, "/app/auth/login?redirect=%2Fapp", ""},
		{"home signed in", "/app", user, http.StatusOK, "", "Signed in as u1"},
		{"login carries resumption", "/app/auth/login?redirect=%2Fapp%2Fdashboard", nil, http.StatusOK, "", `data-redirect="/app/dashboard"`},
		{"login signed in", "/app/auth/login", user, http.StatusFound, "/app", ""},
		{"dashboard as admin", "/app/dashboard", admin, http.StatusOK, "", "Administering as root"},
		{"dashboard as user", "/app/dashboard", user, http.StatusFound, "/app", ""},
		{"trailing slash", "/app/dashboard/", admin, http.StatusMovedPermanently, "/app/dashboard", ""},
		{"unknown page", "/app/missing", user, http.StatusNotFound, "", "Page not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.session != nil {
				req.AddCookie(ident.Cookie(tt.session))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.location != "" {
				if got := w.Header().Get("Location"); got != tt.location {
					t.Errorf("location = %q, want %q", got, tt.location)
				}
			}
			if tt.contains != "" && !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}
