package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/go-chi/chi/v5"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service/events"
)

const playbackEventsStreamPath = "/api/v1/playback/events/stream"

// PlaybackEventsHandler exposes the playback transition feed.
type PlaybackEventsHandler struct {
	feed              *events.Service
	heartbeatInterval time.Duration
}

// NewPlaybackEventsHandler creates a handler over feed.
func NewPlaybackEventsHandler(feed *events.Service) *PlaybackEventsHandler {
	return &PlaybackEventsHandler{
		feed:              feed,
		heartbeatInterval: events.HeartbeatInterval,
	}
}

// PlaybackTransitionEvent is sent for each transition on the stream.
type PlaybackTransitionEvent events.Event

// PlaybackEventsStreamInput defines the stream query parameters.
type PlaybackEventsStreamInput struct {
	State   string `query:"state" enum:"idle,loading,playing,error,closed" doc:"Only send transitions into this state"`
	Initial int    `query:"initial" default:"20" minimum:"0" maximum:"500" doc:"Recent transitions to send on connect"`
}

// GetRecentPlaybackEventsInput is the input for recent transitions.
type GetRecentPlaybackEventsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum number of transitions to return"`
}

// GetRecentPlaybackEventsOutput returns recent transitions, oldest first.
type GetRecentPlaybackEventsOutput struct {
	Body struct {
		Events []events.Event `json:"events"`
	}
}

// GetPlaybackEventStatsInput is the input for feed statistics.
type GetPlaybackEventStatsInput struct{}

// GetPlaybackEventStatsOutput returns feed statistics.
type GetPlaybackEventStatsOutput struct {
	Body events.Stats
}

// Register registers the feed routes. The stream operation only documents
// the endpoint; RegisterChiRoutes serves it and must run afterwards.
func (h *PlaybackEventsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getRecentPlaybackEvents",
		Method:      "GET",
		Path:        "/api/v1/playback/events",
		Summary:     "Recent playback transitions",
		Tags:        []string{"Playback"},
	}, h.GetRecent)

	huma.Register(api, huma.Operation{
		OperationID: "getPlaybackEventStats",
		Method:      "GET",
		Path:        "/api/v1/playback/events/stats",
		Summary:     "Playback transition statistics",
		Tags:        []string{"Playback"},
	}, h.GetStats)

	sse.Register(api, huma.Operation{
		OperationID: "playbackEventsStream",
		Method:      "GET",
		Path:        playbackEventsStreamPath,
		Summary:     "Subscribe to playback transitions",
		Description: `Server-Sent Events stream of playback state transitions.

- On connect: a ` + "`:connected`" + ` comment, then up to ` + "`initial`" + ` recent transitions
- Every 30s without events: a ` + "`:heartbeat <unix_epoch>`" + ` comment
- Event ` + "`transition`" + `: one state change`,
		Tags: []string{"Playback"},
	}, map[string]any{
		"transition": PlaybackTransitionEvent{},
	}, func(ctx context.Context, _ *PlaybackEventsStreamInput, _ sse.Sender) {
		<-ctx.Done()
	})
}

// RegisterChiRoutes serves the event stream directly so it can flush per
// event.
func (h *PlaybackEventsHandler) RegisterChiRoutes(router chi.Router) {
	router.Get(playbackEventsStreamPath, h.handleStream)
}

// GetRecent returns recent transitions.
func (h *PlaybackEventsHandler) GetRecent(_ context.Context, input *GetRecentPlaybackEventsInput) (*GetRecentPlaybackEventsOutput, error) {
	out := &GetRecentPlaybackEventsOutput{}
	out.Body.Events = h.feed.Recent(input.Limit)
	return out, nil
}

// GetStats returns feed statistics.
func (h *PlaybackEventsHandler) GetStats(_ context.Context, _ *GetPlaybackEventStatsInput) (*GetPlaybackEventStatsOutput, error) {
	return &GetPlaybackEventStatsOutput{Body: h.feed.Stats()}, nil
}

func (h *PlaybackEventsHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	stateFilter := r.URL.Query().Get("state")
	initial := 20
	if v := r.URL.Query().Get("initial"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 500 {
			initial = n
		}
	}

	ctx := r.Context()
	sub := h.feed.Subscribe(ctx)
	rc := http.NewResponseController(w)

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	fmt.Fprint(w, ":connected\n\n")
	if initial > 0 {
		for _, ev := range h.feed.Recent(initial) {
			if stateFilter != "" && ev.To != stateFilter {
				continue
			}
			if err := writeTransitionEvent(w, ev); err != nil {
				return
			}
		}
	}
	if err := rc.Flush(); err != nil {
		slog.Debug("failed to flush event stream", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ":heartbeat %d\n\n", time.Now().Unix())
			if err := rc.Flush(); err != nil {
				return
			}
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			if stateFilter != "" && ev.To != stateFilter {
				continue
			}
			if err := writeTransitionEvent(w, ev); err != nil {
				slog.Debug("failed to write transition event", slog.String("error", err.Error()))
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			heartbeat.Reset(h.heartbeatInterval)
		}
	}
}

// writeTransitionEvent writes ev as one SSE message.
func writeTransitionEvent(w http.ResponseWriter, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: transition\ndata: %s\n\n", data)
	return err
}
