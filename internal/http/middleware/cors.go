package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls the cross-origin headers set for the API. The web
// player and third-party dashboards call the API from other origins.
type CORSConfig struct {
	// AllowedOrigins lists accepted Origin values. A single "*" accepts
	// any origin and answers with a literal wildcard.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is how long, in seconds, a browser may cache a preflight.
	MaxAge int
	// SkipPaths pass through untouched; the stream proxy sets its own
	// Access-Control headers.
	SkipPaths []string
}

// DefaultCORSConfig accepts any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         24 * 60 * 60,
	}
}

// CORS is CORSWithConfig over DefaultCORSConfig with the given skip paths.
func CORS(skipPaths ...string) func(http.Handler) http.Handler {
	cfg := DefaultCORSConfig()
	cfg.SkipPaths = skipPaths
	return CORSWithConfig(cfg)
}

// corsPolicy is a CORSConfig with its header values prepared once.
type corsPolicy struct {
	wildcard    bool
	origins     map[string]struct{}
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
	skip        []string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		wildcard:    len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*",
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		skip:        cfg.SkipPaths,
	}
	for _, o := range cfg.AllowedOrigins {
		p.origins[o] = struct{}{}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not accepted.
func (p *corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	if _, ok := p.origins["*"]; ok {
		return origin
	}
	return ""
}

func (p *corsPolicy) apply(h http.Header, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		if allow := p.allowOrigin(origin); allow != "" {
			h.Set("Access-Control-Allow-Origin", allow)
			if allow != "*" {
				h.Add("Vary", "Origin")
			}
			if p.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
		}
	}
	if r.Method != http.MethodOptions {
		return
	}
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
}

// CORSWithConfig sets CORS headers on every response outside cfg.SkipPaths
// and answers OPTIONS preflights with 204.
func CORSWithConfig(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasPathPrefix(r.URL.Path, policy.skip) {
				next.ServeHTTP(w, r)
				return
			}
			policy.apply(w.Header(), r)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
