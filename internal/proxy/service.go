// Package proxy implements the stream proxy: it relays HLS playlists and
// media segments from stream origins, rewriting playlists so every media
// reference routes back through the proxy.
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/metrics"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/manifest"
)

// Response header values.
const (
	ContentTypeSegment = "video/mp2t"

	cacheControlPlaylist = "no-cache, no-store, must-revalidate"
	cacheControlSegment  = "public, max-age=31536000"

	// CORSAllowMethods is sent on every proxy response.
	CORSAllowMethods = "GET, POST, OPTIONS"

	corsAllowOrigin  = "*"
	corsAllowHeaders = "Content-Type, Authorization, X-Client-Info, Apikey"

	kindPlaylist = "playlist"
	kindSegment  = "segment"
	kindNone     = "none"
)

const defaultMaxPlaylistSize = 2 << 20

// Service is the stream proxy HTTP handler. It holds no per-request state,
// so a single instance serves any number of concurrent requests.
type Service struct {
	client          *httpclient.Client
	userAgent       string
	publicURL       string
	maxPlaylistSize int64
	logger          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHTTPClient replaces the upstream client.
func WithHTTPClient(client *httpclient.Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// New creates a proxy Service from the proxy configuration.
func New(cfg config.ProxyConfig, opts ...Option) *Service {
	s := &Service{
		userAgent:       cfg.UserAgent,
		publicURL:       cfg.PublicURL,
		maxPlaylistSize: cfg.MaxPlaylistSize.Bytes(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxPlaylistSize <= 0 {
		s.maxPlaylistSize = defaultMaxPlaylistSize
	}
	s.logger = observability.WithComponent(s.logger, "proxy")

	if s.client == nil {
		s.client = newUpstreamClient(cfg, s.logger)
	}
	return s
}

// newUpstreamClient builds a client with retries and the circuit breaker
// disabled. Segment transfers can run for as long as the client keeps
// reading, so only the wait for response headers is bounded.
func newUpstreamClient(cfg config.ProxyConfig, logger *slog.Logger) *httpclient.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout

	return httpclient.New(httpclient.Config{
		UserAgent:  cfg.UserAgent,
		Logger:     logger,
		BaseClient: &http.Client{Transport: transport},
	})
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}
	setCORSHeaders(tw.Header())

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic in stream proxy",
				slog.Any("panic", rec),
				slog.String("url", r.URL.Query().Get("url")),
			)
			s.writeError(tw, fmt.Errorf("%v", rec))
		}
	}()

	if r.Method == http.MethodOptions {
		tw.WriteHeader(http.StatusOK)
		return
	}

	streamURL := r.URL.Query().Get("url")
	if streamURL == "" {
		s.writeError(tw, &InputError{Message: "Missing url parameter"})
		return
	}

	if err := s.relay(tw, r, streamURL); err != nil {
		s.writeError(tw, err)
	}
}

// relay fetches streamURL and writes it to w as a rewritten playlist or a
// streamed segment.
func (s *Service) relay(w *trackingWriter, r *http.Request, streamURL string) error {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("creating upstream request: %w", err)
	}
	req.Header.Set(httpclient.HeaderUserAgent, s.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	if rng := r.Header.Get("Range"); rng != "" && !manifest.IsPlaylist(streamURL, "") {
		req.Header.Set("Range", rng)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordProxyUpstreamError(resp.StatusCode)
		return newUpstreamError(resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if manifest.IsPlaylist(streamURL, contentType) {
		metrics.ObserveProxyUpstreamLatency(kindPlaylist, time.Since(start))
		return s.servePlaylist(w, r, resp, streamURL)
	}
	metrics.ObserveProxyUpstreamLatency(kindSegment, time.Since(start))
	return s.serveSegment(w, r, resp, streamURL)
}

func (s *Service) servePlaylist(w *trackingWriter, r *http.Request, resp *http.Response, streamURL string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxPlaylistSize+1))
	if err != nil {
		return fmt.Errorf("reading playlist: %w", err)
	}
	if int64(len(body)) > s.maxPlaylistSize {
		return fmt.Errorf("%w (%d bytes)", ErrPlaylistTooLarge, s.maxPlaylistSize)
	}

	rewritten, err := manifest.Rewrite(string(body), streamURL, s.endpoint(r))
	if err != nil {
		return fmt.Errorf("rewriting playlist: %w", err)
	}

	if s.logger.Enabled(r.Context(), slog.LevelDebug) {
		if summary, err := manifest.Inspect(body); err == nil {
			s.logger.Debug("rewrote playlist",
				slog.String("url", streamURL),
				slog.String("type", string(summary.Type)),
				slog.Int("variants", summary.Variants),
				slog.Int("segments", summary.Segments),
			)
		}
	}

	h := w.Header()
	h.Set("Content-Type", manifest.ContentTypeHLSPlaylist)
	h.Set("Cache-Control", cacheControlPlaylist)
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	n, err := io.WriteString(w, rewritten)
	metrics.AddProxyBytes(kindPlaylist, int64(n))
	metrics.RecordProxyRequest(kindPlaylist, metrics.ResultOK)
	if err != nil {
		s.logger.Debug("client went away during playlist write", slog.String("error", err.Error()))
	}
	return nil
}

func (s *Service) serveSegment(w *trackingWriter, r *http.Request, resp *http.Response, streamURL string) error {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypeSegment
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", cacheControlSegment)
	h.Set("Accept-Ranges", "bytes")
	if resp.ContentLength >= 0 {
		h.Set(httpclient.HeaderContentLength, fmt.Sprint(resp.ContentLength))
	}
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		h.Set("Content-Range", cr)
	}
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(&flushWriter{w: w, rc: http.NewResponseController(w)}, resp.Body)
	metrics.AddProxyBytes(kindSegment, n)
	metrics.RecordProxyRequest(kindSegment, metrics.ResultOK)
	if err != nil {
		// Headers are gone; the client sees a truncated body.
		s.logger.Debug("segment relay ended early",
			slog.String("url", streamURL),
			slog.Int64("bytes", n),
			slog.String("error", err.Error()),
		)
		return nil
	}

	s.logger.Log(r.Context(), observability.LevelTrace, "relayed segment",
		slog.String("url", streamURL),
		slog.Int64("bytes", n),
	)
	return nil
}

// endpoint is the externally visible URL of this proxy, used as the prefix
// for rewritten media references.
func (s *Service) endpoint(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	return urlutil.RequestBaseURL(r)
}

// writeError maps err to a JSON error response. Nothing is written once
// the response has started.
func (s *Service) writeError(w *trackingWriter, err error) {
	if w.wroteHeader {
		s.logger.Warn("stream proxy failed after response started", slog.String("error", err.Error()))
		return
	}

	var (
		inputErr    *InputError
		upstreamErr *UpstreamError
		status      int
		body        errorBody
	)
	switch {
	case errors.As(err, &inputErr):
		status = http.StatusBadRequest
		body = errorBody{Error: inputErr.Message}
		metrics.RecordProxyRequest(kindNone, "bad_request")
	case errors.As(err, &upstreamErr):
		status = upstreamErr.StatusCode
		body = errorBody{
			Error:      "Stream fetch failed",
			Status:     upstreamErr.StatusCode,
			StatusText: upstreamErr.StatusText,
		}
		s.logger.Warn("upstream rejected stream request",
			slog.Int("status", upstreamErr.StatusCode),
			slog.String("status_text", upstreamErr.StatusText),
		)
		metrics.RecordProxyRequest(kindNone, "upstream_error")
	default:
		status = http.StatusInternalServerError
		body = errorBody{Error: "Proxy error", Message: urlutil.MaskCredentials(err.Error())}
		s.logger.Error("stream proxy error", slog.String("error", err.Error()))
		metrics.RecordProxyRequest(kindNone, metrics.ResultError)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	h.Set("Access-Control-Allow-Methods", CORSAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// trackingWriter records whether the response has started.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// flushWriter pushes every chunk to the client as soon as it is written.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err == nil {
		_ = f.rc.Flush()
	}
	return n, err
}

// ProxyURL returns the proxy URL that relays upstream through the proxy
// mounted at endpoint.
func ProxyURL(endpoint, upstream string) string {
	return manifest.ProxyURL(endpoint, upstream)
}
