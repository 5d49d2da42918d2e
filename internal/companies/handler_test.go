package companies_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/job-board/internal/companies"
	"github.com/JaimeStill/job-board/pkg/routes"
)

func TestHandler(t *testing.T) {
	f := newFixture(t)

	r := routes.New()
	r.RegisterGroup(companies.NewHandler(f.sys, f.identity, testLogger()).Routes())
	h := f.identity.Authenticate(r.Build())

	owner := f.session(t, "owner").Token
	intruder := f.session(t, "intruder").Token

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/companies", owner, `{"name":"Amazon","website":"https://amazon.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var c companies.Company
	if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	job, _ := json.Marshal(posting("Delivery Driver"))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"list", http.MethodGet, "/companies", "", "", http.StatusOK},
		{"find", http.MethodGet, "/companies/" + c.ID, "", "", http.StatusOK},
		{"find missing", http.MethodGet, "/companies/missing", "", "", http.StatusNotFound},
		{"create anonymous", http.MethodPost, "/companies", "", `{}`, http.StatusUnauthorized},
		{"create null body", http.MethodPost, "/companies", owner, `null`, http.StatusBadRequest},
		{"update null body", http.MethodPatch, "/companies/" + c.ID, owner, `null`, http.StatusBadRequest},
		{"post job null body", http.MethodPost, "/companies/" + c.ID + "/jobs", owner, `null`, http.StatusBadRequest},
		{"update forbidden", http.MethodPatch, "/companies/" + c.ID, intruder, `{"name":"Mine"}`, http.StatusForbidden},
		{"update", http.MethodPatch, "/companies/" + c.ID, owner, `{"description":"Retail"}`, http.StatusOK},
		{"post job", http.MethodPost, "/companies/" + c.ID + "/jobs", owner, string(job), http.StatusCreated},
		{"post invalid job", http.MethodPost, "/companies/" + c.ID + "/jobs", owner, `{"title":"x"}`, http.StatusUnprocessableEntity},
		{"page", http.MethodGet, "/companies/" + c.ID + "/jobs", "", "", http.StatusOK},
		{"remove missing job", http.MethodDelete, "/companies/" + c.ID + "/jobs/missing", owner, "", http.StatusNoContent},
		{"delete forbidden", http.MethodDelete, "/companies/" + c.ID, intruder, "", http.StatusForbidden},
		{"delete", http.MethodDelete, "/companies/" + c.ID, owner, "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/companies/" + c.ID, owner, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}
