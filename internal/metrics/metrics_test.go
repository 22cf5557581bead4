package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	RecordProxyRequest("segment", ResultOK)
	RecordProxyUpstreamError(http.StatusNotFound)
	AddProxyBytes("segment", 1024)
	ObserveProxyUpstreamLatency("playlist", 50*time.Millisecond)
	RecordPlaybackTransition("idle", "loading")
	RecordPlaybackRecovery("network")
	RecordCatalogRequest("get_live_streams", nil)

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"elitewave_proxy_requests_total",
		"elitewave_proxy_upstream_errors_total",
		"elitewave_proxy_bytes_total",
		"elitewave_proxy_upstream_latency_seconds",
		"elitewave_playback_transitions_total",
		"elitewave_playback_recoveries_total",
		"elitewave_playback_active",
		"elitewave_catalog_requests_total",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestRecordPlaybackTransition_ActiveGauge(t *testing.T) {
	RecordPlaybackTransition("idle", "loading")
	assert.Equal(t, float64(1), testutil.ToFloat64(PlaybackActive))

	RecordPlaybackTransition("loading", "playing")
	assert.Equal(t, float64(1), testutil.ToFloat64(PlaybackActive))

	RecordPlaybackTransition("playing", "error")
	assert.Equal(t, float64(0), testutil.ToFloat64(PlaybackActive))
}

func TestRecordCatalogRequest(t *testing.T) {
	before := testutil.ToFloat64(CatalogRequests.WithLabelValues("get_short_epg", ResultError))
	RecordCatalogRequest("get_short_epg", errors.New("timeout"))
	after := testutil.ToFloat64(CatalogRequests.WithLabelValues("get_short_epg", ResultError))
	assert.Equal(t, before+1, after)
}

func TestAddProxyBytes_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(ProxyBytes.WithLabelValues("playlist"))
	AddProxyBytes("playlist", 0)
	AddProxyBytes("playlist", -5)
	assert.Equal(t, before, testutil.ToFloat64(ProxyBytes.WithLabelValues("playlist")))
}
