package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/job-board/pkg/web"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(`<title>{{ .Title }}</title><a href="{{ url "jobs" }}">jobs</a>{{ template "content" . }}`)},
		"views/hello.html":  {Data: []byte(`{{ define "content" }}hello {{ .Data }} at {{ .Path }}{{ end }}`)},
		"views/broken.html": {Data: []byte(`{{ define "content" }}{{ .Data.Missing }}{{ end }}`)},
	}
}

func testOptions() web.Options {
	return web.Options{
		LayoutGlob: "layouts/*.html",
		ViewDir:    "views",
		Layout:     "base.html",
		BasePath:   "/app",
	}
}

func TestPages_Handler(t *testing.T) {
	page := web.Page{
		Template: "hello.html",
		Title:    "Hello",
		Data:     func(r *http.Request) any { return r.URL.Query().Get("name") },
	}

	pages, err := web.NewPages(testFS(), testOptions(), page)
	if err != nil {
		t.Fatalf("NewPages failed: %v", err)
	}

	rec := httptest.NewRecorder()
	pages.Handler(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/greet?name=ada", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Hello</title>", `href="/app/jobs"`, "hello ada at /greet"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}

func TestPages_StatusHandler(t *testing.T) {
	page := web.Page{Template: "hello.html", Title: "Missing"}
	pages, err := web.NewPages(testFS(), testOptions(), page)
	if err != nil {
		t.Fatalf("NewPages failed: %v", err)
	}

	rec := httptest.NewRecorder()
	pages.StatusHandler(page, http.StatusNotFound).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPages_RenderFailure(t *testing.T) {
	page := web.Page{
		Template: "broken.html",
		Data:     func(*http.Request) any { return 42 },
	}
	pages, err := web.NewPages(testFS(), testOptions(), page)
	if err != nil {
		t.Fatalf("NewPages failed: %v", err)
	}

	rec := httptest.NewRecorder()
	pages.Handler(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<title>") {
		t.Error("partial page written on render failure")
	}
}

func TestNewPages_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts func(*web.Options)
		page web.Page
	}{
		{"missing view", func(*web.Options) {}, web.Page{Template: "absent.html"}},
		{"unknown layout", func(o *web.Options) { o.Layout = "other.html" }, web.Page{Template: "hello.html"}},
		{"no layouts", func(o *web.Options) { o.LayoutGlob = "none/*.html" }, web.Page{Template: "hello.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.opts(&opts)
			if _, err := web.NewPages(testFS(), opts, tt.page); err == nil {
				t.Error("NewPages succeeded, want error")
			}
		})
	}
}
