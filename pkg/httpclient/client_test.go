package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playlist = "#EXTM3U\n#EXT-X-VERSION:3\n#EXTINF:6,\nseg1.ts\n"

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	return cfg
}

// statusSequence serves the given statuses in order, then 200.
func statusSequence(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		_, _ = io.WriteString(w, playlist)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func get(t *testing.T, c *Client, rawURL string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(context.Background(), rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew(t *testing.T) {
	c := NewWithDefaults()
	assert.NotNil(t, c.client)
	assert.NotNil(t, c.breaker)
	assert.NotNil(t, c.logger)

	zero := New(Config{})
	assert.Nil(t, zero.breaker)
	assert.Equal(t, CircuitClosed, zero.CircuitState())
	assert.Equal(t, DefaultBackoffMultiplier, zero.config.BackoffMultiplier)

	base := &http.Client{Timeout: time.Second}
	assert.Same(t, base, New(Config{BaseClient: base}).client)
}

func TestClient_UserAgent(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(HeaderUserAgent))
	}))
	defer server.Close()

	c := New(Config{UserAgent: "elitewave-test/1.0"})
	get(t, c, server.URL)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set(HeaderUserAgent, "VLC/3.0")
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"elitewave-test/1.0", "VLC/3.0"}, seen)
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name       string
		attempts   int
		statuses   []int
		wantStatus int
		wantCalls  int32
	}{
		{"recovers after retryable statuses", DefaultRetryAttempts, []int{503, 429}, 200, 3},
		{"returns last retryable status", DefaultRetryAttempts, []int{502, 502, 502}, 502, 3},
		{"disabled retries", 0, []int{503}, 503, 1},
		{"client errors are final", DefaultRetryAttempts, []int{404}, 404, 1},
		{"server errors are final", DefaultRetryAttempts, []int{500}, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := statusSequence(t, tt.statuses...)
			cfg := fastConfig()
			cfg.RetryAttempts = tt.attempts

			resp, _ := get(t, New(cfg), server.URL)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	const unreachable = "http://127.0.0.1:1/live/alice/hunter2/1.m3u8"

	cfg := fastConfig()
	cfg.CircuitThreshold = 0
	cfg.RetryAttempts = 0
	_, err := New(cfg).Get(context.Background(), unreachable)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMaxRetries))

	cfg.RetryAttempts = 2
	_, err = New(cfg).Get(context.Background(), unreachable)
	assert.ErrorIs(t, err, ErrMaxRetries)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(cfg).Get(ctx, unreachable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_LogsOnlyOrigin(t *testing.T) {
	var logs bytes.Buffer
	cfg := fastConfig()
	cfg.RetryAttempts = 0
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(cfg).Get(context.Background(), "http://127.0.0.1:1/player_api.php?username=alice&password=hunter2")
	require.Error(t, err)

	assert.Contains(t, logs.String(), "origin=http://127.0.0.1:1")
	assert.NotContains(t, logs.String(), "hunter2")
}

func TestClient_Backoff(t *testing.T) {
	c := New(Config{RetryDelay: 100 * time.Millisecond, RetryMaxDelay: 300 * time.Millisecond, BackoffMultiplier: 2})
	assert.Equal(t, 100*time.Millisecond, c.backoff(1))
	assert.Equal(t, 200*time.Millisecond, c.backoff(2))
	assert.Equal(t, 300*time.Millisecond, c.backoff(3))
}

func TestClient_Decode(t *testing.T) {
	encode := map[string]func(io.Writer) io.WriteCloser{
		EncodingGzip:    func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		EncodingBrotli:  func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) },
		EncodingDeflate: func(w io.Writer) io.WriteCloser {
			fw, _ := flate.NewWriter(w, flate.DefaultCompression)
			return fw
		},
	}
	for enc, newWriter := range encode {
		t.Run(enc, func(t *testing.T) {
			var buf bytes.Buffer
			w := newWriter(&buf)
			_, _ = io.WriteString(w, playlist)
			require.NoError(t, w.Close())

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultAcceptEncodingHeader, r.Header.Get(HeaderAcceptEncoding))
				w.Header().Set(HeaderContentEncoding, enc)
				_, _ = w.Write(buf.Bytes())
			}))
			defer server.Close()

			resp, body := get(t, NewWithDefaults(), server.URL)
			assert.Equal(t, playlist, body)
			assert.Empty(t, resp.Header.Get(HeaderContentEncoding))
			assert.True(t, resp.Uncompressed)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get(HeaderAcceptEncoding))
			_, _ = io.WriteString(w, playlist)
		}))
		defer server.Close()

		_, body := get(t, New(Config{}), server.URL)
		assert.Equal(t, playlist, body)
	})

	t.Run("disabled relays encoded body", func(t *testing.T) {
		var compressed bytes.Buffer
		zw := gzip.NewWriter(&compressed)
		_, _ = io.WriteString(zw, playlist)
		require.NoError(t, zw.Close())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderContentEncoding, EncodingGzip)
			_, _ = w.Write(compressed.Bytes())
		}))
		defer server.Close()

		resp, body := get(t, New(Config{}), server.URL)
		assert.Equal(t, EncodingGzip, resp.Header.Get(HeaderContentEncoding))
		assert.False(t, resp.Uncompressed)
		assert.Equal(t, compressed.String(), body)
	})
}

func TestClient_MaxResponseSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("#EXTINF:6,\nseg.ts\n", 20))
	}))
	defer server.Close()

	resp, err := New(Config{MaxResponseSize: 16}).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadAll(resp.Body)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestClient_CircuitBreaker(t *testing.T) {
	server, calls := statusSequence(t, 500, 500, 500)

	cfg := fastConfig()
	cfg.RetryAttempts = 0
	cfg.CircuitThreshold = 2
	cfg.CircuitTimeout = time.Hour
	c := New(cfg)

	for range 2 {
		resp, _ := get(t, c, server.URL)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	assert.Equal(t, CircuitOpen, c.CircuitState())

	_, err := c.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_StandardClient(t *testing.T) {
	server, _ := statusSequence(t, http.StatusPartialContent)

	resp, err := NewWithDefaults().StandardClient().Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
}
