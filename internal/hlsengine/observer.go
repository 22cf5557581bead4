package hlsengine

import (
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/manifest"
)

// observer is a RoundTripper that records whether the manifest loaded and
// which request failed last, so a client failure can be attributed to the
// network or to the media. loaded is shared by every observer of one
// engine.
type observer struct {
	base   http.RoundTripper
	loaded *atomic.Bool

	mu  sync.Mutex
	res wireResult
}

func newObserver(base http.RoundTripper, loaded *atomic.Bool) *observer {
	return &observer{base: base, loaded: loaded}
}

type wireResult struct {
	manifestLoaded     bool
	failed             bool
	lastFailedPlaylist bool
	lastStatus         int
}

func (o *observer) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := o.base.RoundTrip(req)

	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case err != nil:
		o.recordFailure(req, 0)
	case resp.StatusCode >= http.StatusBadRequest:
		o.recordFailure(req, resp.StatusCode)
	case resp.StatusCode < http.StatusMultipleChoices:
		o.loaded.Store(true)
	}
	return resp, err
}

func (o *observer) recordFailure(req *http.Request, status int) {
	o.res.failed = true
	o.res.lastStatus = status
	o.res.lastFailedPlaylist = manifest.IsPlaylist(requestTarget(req), "")
}

func (o *observer) result() wireResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	res := o.res
	res.manifestLoaded = o.loaded.Load()
	return res
}

// requestTarget returns the upstream URL of a proxied request, or the
// request URL itself.
func requestTarget(req *http.Request) string {
	return upstreamURL(req.URL.String())
}

func upstreamURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return raw
}
