// Package middleware provides composable http.Handler wrappers shared by
// every module: path canonicalisation, CORS and request logging.
package middleware

import (
	"net/http"
	"path"
	"strings"
)

// AddSlash redirects directory-like paths to their trailing-slash form.
// Paths naming a file (with an extension) pass through.
func AddSlash() func(http.Handler) http.Handler {
	return canonical(func(p string) (string, bool) {
		if strings.HasSuffix(p, "/") || path.Ext(p) != "" {
			return "", false
		}
		return p + "/", true
	})
}

// TrimSlash redirects paths with a trailing slash to the form without one.
// The root path is left alone.
func TrimSlash() func(http.Handler) http.Handler {
	return canonical(func(p string) (string, bool) {
		if len(p) <= 1 || !strings.HasSuffix(p, "/") {
			return "", false
		}
		return strings.TrimSuffix(p, "/"), true
	})
}

func canonical(rewrite func(string) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, ok := rewrite(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
	}
}
