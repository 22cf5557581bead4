package middleware

import (
	"net/http"
	"strings"
)

// SkipCompression wraps a compression middleware so that event streams and
// requests under any of skipPaths are served uncompressed. Both stream
// bodies that must reach the client as they are written.
func SkipCompression(compress func(http.Handler) http.Handler, skipPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		compressed := compress(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Accept"), "text/event-stream") || hasPathPrefix(r.URL.Path, skipPaths) {
				next.ServeHTTP(w, r)
				return
			}
			compressed.ServeHTTP(w, r)
		})
	}
}

// hasPathPrefix reports whether path equals or is nested under one of
// prefixes.
func hasPathPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}
