package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service/events"
)

func newTestFeed() *events.Service {
	feed := events.New(10)
	feed.Record(playback.Transition{From: playback.StateIdle, To: playback.StateLoading, URL: "http://panel.test/live/alice/hunter2/1.m3u8"})
	feed.Record(playback.Transition{From: playback.StateLoading, To: playback.StatePlaying})
	return feed
}

func TestPlaybackEventsHandler_Recent(t *testing.T) {
	router, api := newTestAPI()
	NewPlaybackEventsHandler(newTestFeed()).Register(api)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/playback/events?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Events []events.Event `json:"events"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "playing", body.Events[0].To)
}

func TestPlaybackEventsHandler_Stats(t *testing.T) {
	router, api := newTestAPI()
	NewPlaybackEventsHandler(newTestFeed()).Register(api)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/playback/events/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats events.Stats
	decodeBody(t, rec, &stats)
	assert.Equal(t, int64(2), stats.TotalEvents)
	assert.Equal(t, int64(1), stats.ByState["playing"])
}

func TestPlaybackEventsHandler_StreamSendsRecent(t *testing.T) {
	router, api := newTestAPI()
	h := NewPlaybackEventsHandler(newTestFeed())
	h.Register(api)
	h.RegisterChiRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, playbackEventsStreamPath+"?state=playing", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, ":connected\n\n"))
	assert.Equal(t, 1, strings.Count(body, "event: transition"), body)
	assert.Contains(t, body, `"to":"playing"`)
	assert.NotContains(t, body, "hunter2")
}

func TestPlaybackEventsHandler_HeartbeatOnlyWhenSilent(t *testing.T) {
	const interval = 250 * time.Millisecond

	router, api := newTestAPI()
	feed := events.New(10)
	h := NewPlaybackEventsHandler(feed)
	h.heartbeatInterval = interval
	h.Register(api)
	h.RegisterChiRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+playbackEventsStreamPath+"?initial=0", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	next := func() string {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed")
			return line
		case <-time.After(2 * time.Second):
			t.Fatal("no data on stream")
			return ""
		}
	}
	require.Equal(t, ":connected", next())

	// Transitions arrive faster than the heartbeat interval for well over
	// one interval.
	const sent = 10
	for range sent {
		feed.Record(playback.Transition{From: playback.StateLoading, To: playback.StatePlaying})
		time.Sleep(interval / 5)
	}

	transitions := 0
	for {
		line := next()
		if strings.HasPrefix(line, ":heartbeat ") {
			break
		}
		if line == "event: transition" {
			transitions++
		}
	}
	assert.Equal(t, sent, transitions, "heartbeat sent while transitions were flowing")
}
