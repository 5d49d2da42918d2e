package module_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/job-board/pkg/module"
)

func body(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	b, _ := io.ReadAll(w.Result().Body)
	return string(b)
}

func echoPath() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
}

func TestNew_InvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%q) did not panic", prefix)
				}
			}()
			module.New(prefix, echoPath())
		})
	}
}

func TestModule_Serve_StripsPrefix(t *testing.T) {
	m := module.New("/api", echoPath())

	tests := []struct {
		path string
		want string
	}{
		{"/api", "/"},
		{"/api/jobs", "/jobs"},
		{"/api/jobs/123", "/jobs/123"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := body(t, http.HandlerFunc(m.Serve), tt.path); got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModule_MiddlewareSeesFullPath(t *testing.T) {
	m := module.New("/app", echoPath())

	var seen string
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.URL.Path
			next.ServeHTTP(w, r)
		})
	})

	got := body(t, http.HandlerFunc(m.Serve), "/app/dashboard")

	if seen != "/app/dashboard" {
		t.Errorf("middleware path = %q, want %q", seen, "/app/dashboard")
	}
	if got != "/dashboard" {
		t.Errorf("handler path = %q, want %q", got, "/dashboard")
	}
}

func TestModule_MiddlewareOrder(t *testing.T) {
	var order []string
	m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	for _, name := range []string{"first", "second"} {
		m.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	body(t, m.Handler(), "/api")

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRouter(t *testing.T) {
	r := module.NewRouter()
	r.HandleNative("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Mount(module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("api " + req.URL.Path))
	})))
	r.Mount(module.New("/app", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("app " + req.URL.Path))
	})))

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/api/jobs", "api /jobs"},
		{"/app", "app /"},
		{"/app/auth/login", "app /auth/login"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := body(t, r, tt.path); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
