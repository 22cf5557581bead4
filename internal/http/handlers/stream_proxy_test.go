package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/proxy"
)

func newProxyRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := proxy.New(config.ProxyConfig{
		Path:                  "/stream-proxy",
		UserAgent:             "test-agent",
		ResponseHeaderTimeout: 5 * time.Second,
	}, proxy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	router, api := newTestAPI()
	handler := NewStreamProxyHandler(svc, "/stream-proxy")
	handler.Register(api)
	handler.RegisterChiRoutes(router)
	return router
}

func TestStreamProxyHandler_ServesRawRoute(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = io.WriteString(w, "#EXTM3U\n#EXTINF:6,\nseg1.ts\n")
	}))
	defer origin.Close()

	router := newProxyRouter(t)

	req := httptest.NewRequest(http.MethodGet, "http://tv.local/stream-proxy?url="+url.QueryEscape(origin.URL+"/live/index.m3u8"), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), "http://tv.local/stream-proxy?url=")
	assert.Contains(t, rec.Body.String(), url.QueryEscape(origin.URL+"/live/seg1.ts"))
}

func TestStreamProxyHandler_Options(t *testing.T) {
	router := newProxyRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/stream-proxy", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, proxy.CORSAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestStreamProxyHandler_DocumentsSentMethods(t *testing.T) {
	_, api := newTestAPI()
	NewStreamProxyHandler(http.NotFoundHandler(), "/stream-proxy").Register(api)

	path := api.OpenAPI().Paths["/stream-proxy"]
	require.NotNil(t, path)

	get := path.Get.Responses["200"].Headers["Access-Control-Allow-Methods"]
	assert.Equal(t, "GET, POST, OPTIONS", get.Description)

	preflight := path.Options.Responses["200"].Headers["Access-Control-Allow-Methods"]
	assert.Contains(t, preflight.Description, "GET, POST, OPTIONS")
}

func TestStreamProxyHandler_MissingURL(t *testing.T) {
	router := newProxyRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/stream-proxy", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing url parameter")
}

func TestMetricsHandler(t *testing.T) {
	router, _ := newTestAPI()
	NewMetricsHandler("/metrics").RegisterChiRoutes(router)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
