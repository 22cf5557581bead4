package playback

import (
	"fmt"
	"time"
)

// State is a playback session state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateError
	StateClosed
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StateLoading: "loading",
	StatePlaying: "playing",
	StateError:   "error",
	StateClosed:  "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions lists the legal target states for each state. Loading to
// Loading is a restart for a new stream. Closed is terminal.
var transitions = map[State][]State{
	StateIdle:    {StateLoading, StateClosed},
	StateLoading: {StateLoading, StatePlaying, StateError, StateClosed},
	StatePlaying: {StateLoading, StateError, StateClosed},
	StateError:   {StateLoading, StateClosed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition describes one state change.
type Transition struct {
	From    State
	To      State
	URL     string
	Message string
	At      time.Time
}

// Channel is one entry of an attached channel list. URL is the resolved
// upstream stream URL.
type Channel struct {
	StreamID int    `json:"stream_id"`
	Name     string `json:"name"`
	IconURL  string `json:"icon_url,omitempty"`
	URL      string `json:"url"`
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	ActiveURL    string    `json:"active_url,omitempty"`
	PlaybackURL  string    `json:"playback_url,omitempty"`
	LoadDeadline time.Time `json:"load_deadline,omitzero"`
	CurrentIndex int       `json:"current_index"`
	ChannelCount int       `json:"channel_count"`
	Channel      *Channel  `json:"channel,omitempty"`
	Message      string    `json:"message,omitempty"`
}
