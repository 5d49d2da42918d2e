package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/job-board/pkg/identity"
)

func TestAuthenticate(t *testing.T) {
	sys, _ := newIdentity(t)
	ctx := context.Background()

	valid, err := sys.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	revoked, err := sys.Issue(ctx, "u2")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := sys.SignOut(ctx, revoked); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	var seen *identity.Session
	h := sys.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		token   string
		status  int
		wantUID string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid", valid.Token, http.StatusOK, "u1"},
		{"garbage", "not-a-token", http.StatusUnauthorized, ""},
		{"revoked", revoked.Token, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			uid := ""
			if seen != nil {
				uid = seen.UID()
			}
			if uid != tt.wantUID {
				t.Errorf("session uid = %q, want %q", uid, tt.wantUID)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	sys, _ := newIdentity(t)
	issued, err := sys.Issue(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	h := sys.Authenticate(sys.Require(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/jobs", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
	req.AddCookie(sys.Cookie(issued))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("authenticated status = %d, want 204", w.Code)
	}
}
