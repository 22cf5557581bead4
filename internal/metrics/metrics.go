// Package metrics exposes Prometheus collectors for the stream proxy,
// playback sessions and the vendor panel client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "elitewave"

var (
	// ProxyRequests counts proxy responses by resource kind and outcome.
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of stream proxy requests",
	}, []string{"kind", "result"})

	// ProxyUpstreamErrors counts upstream non-2xx responses by status code.
	ProxyUpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_upstream_errors_total",
		Help:      "Total number of upstream responses with a non-2xx status",
	}, []string{"status"})

	// ProxyBytes counts body bytes relayed to clients.
	ProxyBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_bytes_total",
		Help:      "Total number of body bytes relayed by the stream proxy",
	}, []string{"kind"})

	// ProxyUpstreamLatency observes time to upstream response headers.
	ProxyUpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "proxy_upstream_latency_seconds",
		Help:      "Time until upstream response headers were received",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// PlaybackTransitions counts session state changes.
	PlaybackTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_transitions_total",
		Help:      "Total number of playback session state transitions",
	}, []string{"from", "to"})

	// PlaybackRecoveries counts recovery actions by error class.
	PlaybackRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playback_recoveries_total",
		Help:      "Total number of playback recovery actions by error class",
	}, []string{"class"})

	// PlaybackActive is 1 while a session is loading or playing.
	PlaybackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "playback_active",
		Help:      "Whether a playback session is currently loading or playing",
	})

	// CatalogRequests counts vendor panel API calls by action and outcome.
	CatalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Total number of vendor panel API requests",
	}, []string{"action", "result"})
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// RecordProxyRequest increments the proxy request counter.
func RecordProxyRequest(kind, result string) {
	ProxyRequests.WithLabelValues(kind, result).Inc()
}

// RecordProxyUpstreamError increments the upstream error counter for status.
func RecordProxyUpstreamError(status int) {
	ProxyUpstreamErrors.WithLabelValues(strconv.Itoa(status)).Inc()
}

// AddProxyBytes adds n relayed bytes for kind.
func AddProxyBytes(kind string, n int64) {
	if n > 0 {
		ProxyBytes.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveProxyUpstreamLatency records the time to upstream headers.
func ObserveProxyUpstreamLatency(kind string, d time.Duration) {
	ProxyUpstreamLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordPlaybackTransition increments the transition counter and keeps the
// active gauge in sync with the target state.
func RecordPlaybackTransition(from, to string) {
	PlaybackTransitions.WithLabelValues(from, to).Inc()
	switch to {
	case "loading", "playing":
		PlaybackActive.Set(1)
	default:
		PlaybackActive.Set(0)
	}
}

// RecordPlaybackRecovery increments the recovery counter for class.
func RecordPlaybackRecovery(class string) {
	PlaybackRecoveries.WithLabelValues(class).Inc()
}

// RecordCatalogRequest increments the vendor API counter.
func RecordCatalogRequest(action string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	CatalogRequests.WithLabelValues(action, result).Inc()
}
