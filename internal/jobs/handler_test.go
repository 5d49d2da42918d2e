package jobs_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/job-board/internal/jobs"
	"github.com/JaimeStill/job-board/pkg/handlers"
	"github.com/JaimeStill/job-board/pkg/routes"
)

func newServer(t *testing.T, f *fixture) http.Handler {
	t.Helper()
	r := routes.New()
	r.RegisterGroup(jobs.NewHandler(f.sys, f.identity, 50, testLogger()).Routes())
	return f.identity.Authenticate(r.Build())
}

func TestHandler_CreateAndFind(t *testing.T) {
	f := newFixture(t)
	h := newServer(t, f)
	token := f.session(t, "owner").Token

	body, _ := json.Marshal(validJob())

	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"anonymous", "", string(body), http.StatusUnauthorized},
		{"malformed", token, "{", http.StatusBadRequest},
		{"null body", token, "null", http.StatusBadRequest},
		{"empty body", token, "", http.StatusBadRequest},
		{"array body", token, "[]", http.StatusBadRequest},
		{"invalid", token, `{"companyID":"amazon","title":"x"}`, http.StatusUnprocessableEntity},
		{"created", token, string(body), http.StatusCreated},
	}

	var created jobs.Job
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusCreated {
				if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
					t.Fatalf("decode failed: %v", err)
				}
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+created.ID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("find status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", w.Code)
	}

	var errBody handlers.ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body failed: %v", err)
	}
	if errBody.Notification.Title == "" {
		t.Error("expected a notification on error responses")
	}
}

func TestHandler_ValidationFields(t *testing.T) {
	f := newFixture(t)
	h := newServer(t, f)

	data := validJob()
	data["remote"] = "Moon"
	body, _ := json.Marshal(data)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.session(t, "owner").Token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}

	var errBody handlers.ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(errBody.Fields) == 0 {
		t.Error("expected field errors")
	}
}

func TestHandler_Stream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(newServer(t, f))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/jobs/stream", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}

	events := readEvents(bufio.NewScanner(resp.Body))

	first := <-events
	if first != "[]" {
		t.Fatalf("first event = %s, want []", first)
	}

	if _, err := f.sys.Create(context.Background(), f.session(t, "owner"), validJob()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var listing []jobs.Job
	if err := json.Unmarshal([]byte(<-events), &listing); err != nil {
		t.Fatalf("decode event failed: %v", err)
	}
	if len(listing) != 1 || listing[0].Title != "Backend Engineer" {
		t.Errorf("listing = %+v, want the created job", listing)
	}
}

// readEvents yields the data payload of each jobs event.
func readEvents(s *bufio.Scanner) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		event := ""
		for s.Scan() {
			line := s.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: ") && event == "jobs":
				out <- strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	return out
}
