package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/proxy"
)

// StreamProxyHandler mounts the stream proxy on the router.
type StreamProxyHandler struct {
	proxy http.Handler
	path  string
}

// NewStreamProxyHandler creates a handler serving proxy on path.
func NewStreamProxyHandler(proxy http.Handler, path string) *StreamProxyHandler {
	return &StreamProxyHandler{proxy: proxy, path: path}
}

// StreamProxyDocsInput documents the proxy query string.
type StreamProxyDocsInput struct {
	URL string `query:"url" required:"true" doc:"Absolute upstream URL of a playlist or media segment"`
}

// Register registers documentation-only operations for the proxy. The
// requests themselves are served by the raw routes from RegisterChiRoutes,
// which must be registered after this so they take precedence.
func (h *StreamProxyHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "streamProxy",
		Method:      http.MethodGet,
		Path:        h.path,
		Summary:     "Proxy a stream resource",
		Description: `Fetches an upstream HLS resource on behalf of the player.

Playlists are rewritten so every segment, key, map and variant reference routes back through this endpoint.
Segments and other media are streamed through unchanged. Range requests are forwarded for non-playlist resources.`,
		Tags: []string{"Stream Proxy"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Rewritten playlist or relayed media",
				Headers: map[string]*huma.Param{
					"Content-Type":                 {Description: "application/vnd.apple.mpegurl for playlists, upstream type otherwise"},
					"Cache-Control":                {Description: "no-cache for playlists"},
					"Access-Control-Allow-Origin":  {Description: "CORS header (always *)"},
					"Access-Control-Allow-Methods": {Description: proxy.CORSAllowMethods},
				},
			},
			"206": {Description: "Partial media content when a Range was requested"},
			"400": {Description: "Missing url parameter"},
			"500": {Description: "Proxy error"},
			"502": {Description: "Upstream server error, mirrored from the origin"},
		},
		SkipValidateBody: true,
	}, h.streamDocsHandler)

	huma.Register(api, huma.Operation{
		OperationID: "streamProxyOptions",
		Method:      http.MethodOptions,
		Path:        h.path,
		Summary:     "CORS preflight for the stream proxy",
		Tags:        []string{"Stream Proxy"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "CORS preflight response",
				Headers: map[string]*huma.Param{
					"Access-Control-Allow-Origin":  {Description: "Allowed origins (*)"},
					"Access-Control-Allow-Methods": {Description: "Allowed methods (" + proxy.CORSAllowMethods + ")"},
					"Access-Control-Allow-Headers": {Description: "Allowed headers"},
				},
			},
		},
	}, h.optionsDocsHandler)
}

// RegisterChiRoutes registers the proxy as raw chi handlers so it controls
// status codes and streams bodies directly.
func (h *StreamProxyHandler) RegisterChiRoutes(router chi.Router) {
	router.Method(http.MethodGet, h.path, h.proxy)
	router.Method(http.MethodOptions, h.path, h.proxy)
}

func (h *StreamProxyHandler) streamDocsHandler(_ context.Context, _ *StreamProxyDocsInput) (*struct{}, error) {
	return nil, huma.Error501NotImplemented("served by the raw stream proxy route")
}

func (h *StreamProxyHandler) optionsDocsHandler(_ context.Context, _ *struct{}) (*struct{}, error) {
	return nil, huma.Error501NotImplemented("served by the raw stream proxy route")
}
