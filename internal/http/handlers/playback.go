package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service"
)

// PlaybackHandler controls the server-side player.
type PlaybackHandler struct {
	player   *playback.Player
	profiles *service.ProfileService
}

// NewPlaybackHandler creates a playback handler. profiles may be nil, in
// which case only direct URLs can be played.
func NewPlaybackHandler(player *playback.Player, profiles *service.ProfileService) *PlaybackHandler {
	return &PlaybackHandler{player: player, profiles: profiles}
}

// StartPlaybackRequest starts either a URL or a profile's live channel list.
type StartPlaybackRequest struct {
	URL        string `json:"url,omitempty" doc:"Stream URL to play directly"`
	ProfileID  string `json:"profile_id,omitempty" doc:"Profile whose live channels are attached"`
	CategoryID string `json:"category_id,omitempty" doc:"Live category to attach; empty attaches every channel"`
	Index      int    `json:"index,omitempty" minimum:"0" doc:"Channel to start with"`
}

// SwitchChannelRequest selects a channel by index or moves by delta.
type SwitchChannelRequest struct {
	Index *int `json:"index,omitempty" minimum:"0" doc:"Channel index to switch to"`
	Delta int  `json:"delta,omitempty" doc:"Channels to move from the current one, wrapping around"`
}

// GetPlaybackInput is the input for reading playback state.
type GetPlaybackInput struct{}

// StartPlaybackInput is the input for starting playback.
type StartPlaybackInput struct {
	Body StartPlaybackRequest
}

// SwitchChannelInput is the input for switching channels.
type SwitchChannelInput struct {
	Body SwitchChannelRequest
}

// StopPlaybackInput is the input for stopping playback.
type StopPlaybackInput struct{}

// PlaybackOutput returns the session state.
type PlaybackOutput struct {
	Body playback.Snapshot
}

// StopPlaybackOutput is the output for stopping playback.
type StopPlaybackOutput struct{}

// Register registers the playback routes with the API.
func (h *PlaybackHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getPlayback",
		Method:      "GET",
		Path:        "/api/v1/playback",
		Summary:     "Get playback state",
		Tags:        []string{"Playback"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "startPlayback",
		Method:      "POST",
		Path:        "/api/v1/playback",
		Summary:     "Start playback",
		Description: "Plays a stream URL, or attaches a profile's live channels and plays the channel at index. Any current session is closed first.",
		Tags:        []string{"Playback"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "switchChannel",
		Method:      "POST",
		Path:        "/api/v1/playback/switch",
		Summary:     "Switch channel",
		Description: "Switches to a channel by index, or steps by delta through the attached channel list",
		Tags:        []string{"Playback"},
	}, h.Switch)

	huma.Register(api, huma.Operation{
		OperationID:   "stopPlayback",
		Method:        "DELETE",
		Path:          "/api/v1/playback",
		Summary:       "Stop playback",
		Tags:          []string{"Playback"},
		DefaultStatus: 204,
	}, h.Stop)
}

// Get returns the current session state.
func (h *PlaybackHandler) Get(_ context.Context, _ *GetPlaybackInput) (*PlaybackOutput, error) {
	snap, err := h.player.Snapshot()
	if err != nil {
		return nil, playbackError(err)
	}
	return &PlaybackOutput{Body: snap}, nil
}

// Start begins playback of a URL or a channel list.
func (h *PlaybackHandler) Start(ctx context.Context, input *StartPlaybackInput) (*PlaybackOutput, error) {
	req := input.Body

	if req.URL != "" {
		snap, err := h.player.Play(req.URL)
		if err != nil {
			return nil, playbackError(err)
		}
		return &PlaybackOutput{Body: snap}, nil
	}

	if req.ProfileID == "" {
		return nil, huma.Error400BadRequest("either url or profile_id is required")
	}
	if h.profiles == nil {
		return nil, huma.Error400BadRequest("profiles are not available")
	}

	profile, err := h.profiles.Find(ctx, req.ProfileID)
	if err != nil {
		return nil, profileError(err)
	}
	svc, err := h.profiles.Connect(ctx, profile.ID)
	if err != nil {
		return nil, profileError(err)
	}
	channels, err := svc.LiveChannels(ctx, req.CategoryID)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch live channels", err)
	}
	if req.Index < 0 || req.Index >= len(channels) {
		return nil, huma.Error400BadRequest("channel index out of range")
	}

	snap, err := h.player.PlayChannels(channels, req.Index)
	if err != nil {
		return nil, playbackError(err)
	}
	return &PlaybackOutput{Body: snap}, nil
}

// Switch changes the channel of the current session.
func (h *PlaybackHandler) Switch(_ context.Context, input *SwitchChannelInput) (*PlaybackOutput, error) {
	current, err := h.player.Snapshot()
	if err != nil {
		return nil, playbackError(err)
	}
	if current.ChannelCount == 0 {
		return nil, huma.Error409Conflict("no channel list is attached")
	}

	var (
		snap playback.Snapshot
		ok   bool
	)
	if input.Body.Index != nil {
		snap, ok = h.player.SwitchChannel(*input.Body.Index)
		if !ok {
			return nil, huma.Error400BadRequest("channel index out of range")
		}
	} else {
		snap, ok = h.player.Step(input.Body.Delta)
		if !ok {
			return nil, huma.Error409Conflict("playback session is closed")
		}
	}
	return &PlaybackOutput{Body: snap}, nil
}

// Stop closes the current session.
func (h *PlaybackHandler) Stop(_ context.Context, _ *StopPlaybackInput) (*StopPlaybackOutput, error) {
	if err := h.player.Stop(); err != nil {
		return nil, playbackError(err)
	}
	return &StopPlaybackOutput{}, nil
}

func playbackError(err error) error {
	switch {
	case errors.Is(err, playback.ErrNoSession):
		return huma.Error404NotFound("nothing is playing")
	case errors.Is(err, playback.ErrInvalidURL):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, playback.ErrSessionClosed):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError("playback failed", err)
	}
}
