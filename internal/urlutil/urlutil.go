// Package urlutil holds the URL checks and rewrites shared by the panel
// client, the stream proxy and the logger.
package urlutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Redacted stands in for a hidden credential.
const Redacted = "[REDACTED]"

// NormalizeBaseURL trims a panel address and its trailing slashes and
// defaults the scheme to http, so "panel.example.com:8080/" becomes
// "http://panel.example.com:8080". Empty input stays empty.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || IsRemoteURL(baseURL) {
		return baseURL
	}
	return SchemeHTTP + "://" + baseURL
}

// IsRemoteURL reports whether u starts with an http or https scheme.
func IsRemoteURL(u string) bool {
	return strings.HasPrefix(u, SchemeHTTP+"://") || strings.HasPrefix(u, SchemeHTTPS+"://")
}

var (
	errURLRequired = errors.New("URL is required")
	errNoScheme    = errors.New("URL must include a scheme (http:// or https://)")
	errNoHost      = errors.New("URL must include a host")
)

// ValidateURL accepts only absolute http and https URLs that name a host.
func ValidateURL(u string) error {
	if u == "" {
		return errURLRequired
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch scheme := strings.ToLower(parsed.Scheme); scheme {
	case SchemeHTTP, SchemeHTTPS:
	case "":
		return errNoScheme
	default:
		return fmt.Errorf("unsupported URL scheme %q, want http or https", scheme)
	}
	if parsed.Host == "" {
		return errNoHost
	}
	return nil
}

var (
	// Panel stream URLs embed credentials as path segments:
	// /live/{user}/{pass}/{id}.m3u8, /movie/..., /series/..., /timeshift/...
	streamPathCredentials = regexp.MustCompile(`(/(?:live|movie|series|timeshift)/)([^/?#]+)/([^/?#]+)/`)
	// Query parameters that carry secrets.
	secretQueryParam = regexp.MustCompile(`(?i)([?&](?:password|token|apikey|api_key|secret|credential)=)([^&#\s"]*)`)
)

// MaskCredentials hides credentials embedded in a URL, or in any text
// containing URLs, so it can be logged.
//
//	http://h/live/user/pass/1.m3u8   -> http://h/live/[REDACTED]/[REDACTED]/1.m3u8
//	http://h/api?password=x&user=y   -> http://h/api?password=[REDACTED]&user=y
func MaskCredentials(s string) string {
	if s == "" {
		return s
	}
	s = streamPathCredentials.ReplaceAllString(s, "${1}"+Redacted+"/"+Redacted+"/")
	s = secretQueryParam.ReplaceAllString(s, "${1}"+Redacted)
	return s
}

// RequestBaseURL reconstructs the externally visible URL of r without its
// query string: scheme, host and path. X-Forwarded-Proto and
// X-Forwarded-Host take precedence over the connection's own values.
func RequestBaseURL(r *http.Request) string {
	scheme := SchemeHTTP
	if r.TLS != nil {
		scheme = SchemeHTTPS
	}
	if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(proto)
	}

	host := r.Host
	if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}

	return scheme + "://" + host + r.URL.EscapedPath()
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
