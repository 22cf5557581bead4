// Package manifest rewrites HLS playlists so that every media reference is
// routed back through a proxy endpoint.
//
// Rewriting is a pure, line-oriented transformation. Directive and comment
// lines (starting with "#") and blank lines are passed through byte for byte;
// every other line is treated as a media reference, resolved to an absolute
// URL against the playlist's own URL and wrapped as
//
//	{proxyEndpoint}?url={percent-encoded absolute URL}
//
// The output always has the same number of lines as the input.
package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedBaseURL is returned when the playlist's base URL is not an
// absolute URL. No partial output is produced in that case.
var ErrMalformedBaseURL = errors.New("malformed base URL")

// ContentTypeHLSPlaylist is the canonical MIME type for HLS playlists.
const ContentTypeHLSPlaylist = "application/vnd.apple.mpegurl"

// Kind identifies the role of a single playlist line.
type Kind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank Kind = iota
	// KindComment is a directive or comment line ("#EXTINF", "#EXTM3U", ...).
	KindComment
	// KindMediaURI is a reference to a segment or sub-playlist.
	KindMediaURI
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindMediaURI:
		return "media_uri"
	default:
		return "unknown"
	}
}

// Line is one parsed playlist line.
type Line struct {
	Kind Kind
	// Raw is the line exactly as it appeared in the input.
	Raw string
	// Ref is the trimmed media reference. Only set for KindMediaURI.
	Ref string
}

// Parse splits playlist text on "\n" and classifies each line.
func Parse(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		trimmed := strings.TrimSpace(l)
		switch {
		case trimmed == "":
			lines[i] = Line{Kind: KindBlank, Raw: l}
		case strings.HasPrefix(trimmed, "#"):
			lines[i] = Line{Kind: KindComment, Raw: l}
		default:
			lines[i] = Line{Kind: KindMediaURI, Raw: l, Ref: trimmed}
		}
	}
	return lines
}

// Rewrite resolves every media reference in playlistText against baseURL and
// wraps the result with proxyEndpoint. Callers must rewrite a playlist exactly
// once: applying Rewrite to already proxied output double-encodes the URLs.
func Rewrite(playlistText, baseURL, proxyEndpoint string) (string, error) {
	base, err := ParseBase(baseURL)
	if err != nil {
		return "", err
	}

	lines := Parse(playlistText)
	out := make([]string, len(lines))
	for i, l := range lines {
		if l.Kind != KindMediaURI {
			out[i] = l.Raw
			continue
		}
		out[i] = ProxyURL(proxyEndpoint, Resolve(base, l.Ref))
	}

	return strings.Join(out, "\n"), nil
}

// ParseBase parses a playlist base URL, requiring a scheme and a host.
func ParseBase(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrMalformedBaseURL, baseURL)
	}
	return u, nil
}

// Resolve turns a media reference into an absolute URL.
//
// References starting with "http://" or "https://" are returned as is.
// References starting with "/" are resolved against the base scheme and host.
// Anything else is appended to the base URL's directory (the base path with
// its final segment dropped). Dot segments are not collapsed.
func Resolve(base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	origin := base.Scheme + "://" + base.Host
	if strings.HasPrefix(ref, "/") {
		return origin + ref
	}

	dir := base.EscapedPath()
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i]
	} else {
		dir = ""
	}
	return origin + dir + "/" + ref
}

// ProxyURL wraps an absolute upstream URL so that it is fetched through the
// proxy endpoint.
func ProxyURL(proxyEndpoint, absolute string) string {
	return proxyEndpoint + "?url=" + EncodeComponent(absolute)
}

// EncodeComponent percent-encodes s the way browsers encode a URI component:
// ASCII letters, digits and -_.!~*'() are kept, every other byte becomes %XX.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3 / 2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// IsPlaylist reports whether a response should be treated as a playlist,
// based on the requested URL or the upstream Content-Type.
func IsPlaylist(requestURL, contentType string) bool {
	if strings.Contains(requestURL, ".m3u8") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "mpegurl") || strings.Contains(ct, "m3u8")
}
