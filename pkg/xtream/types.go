package xtream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// AuthInfo is the panel's answer to an action-less player_api.php call.
type AuthInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

// UserInfo describes the account.
type UserInfo struct {
	Username          string     `json:"username"`
	Message           string     `json:"message"`
	Auth              FlexInt    `json:"auth"`
	Status            string     `json:"status"`
	ExpDate           FlexInt    `json:"exp_date"`
	IsTrial           FlexInt    `json:"is_trial"`
	ActiveConnections FlexInt    `json:"active_cons"`
	MaxConnections    FlexInt    `json:"max_connections"`
	OutputFormats     []string   `json:"allowed_output_formats"`
	CreatedAt         FlexString `json:"created_at"`
}

// ExpiresAt returns the account expiry, or the zero time for accounts that
// never expire.
func (u UserInfo) ExpiresAt() time.Time {
	return unixTime(u.ExpDate.Int())
}

// ServerInfo describes the panel.
type ServerInfo struct {
	URL            string  `json:"url"`
	Port           FlexInt `json:"port"`
	HTTPSPort      FlexInt `json:"https_port"`
	ServerProtocol string  `json:"server_protocol"`
	Timezone       string  `json:"timezone"`
	TimestampNow   FlexInt `json:"timestamp_now"`
}

// Category groups streams of one kind.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// Stream is a live channel.
type Stream struct {
	Num          FlexInt    `json:"num"`
	Name         string     `json:"name"`
	StreamType   string     `json:"stream_type"`
	StreamID     FlexInt    `json:"stream_id"`
	StreamIcon   string     `json:"stream_icon"`
	EPGChannelID string     `json:"epg_channel_id"`
	Added        FlexInt    `json:"added"`
	CategoryID   FlexString `json:"category_id"`
	TVArchive    FlexInt    `json:"tv_archive"`
	DirectSource string     `json:"direct_source"`
}

// VODStream is a movie.
type VODStream struct {
	Num                FlexInt    `json:"num"`
	Name               string     `json:"name"`
	StreamID           FlexInt    `json:"stream_id"`
	StreamIcon         string     `json:"stream_icon"`
	Rating             FlexFloat  `json:"rating"`
	Added              FlexInt    `json:"added"`
	CategoryID         FlexString `json:"category_id"`
	ContainerExtension string     `json:"container_extension"`
	DirectSource       string     `json:"direct_source"`
}

// Series is a TV series entry.
type Series struct {
	Num          FlexInt    `json:"num"`
	Name         string     `json:"name"`
	SeriesID     FlexInt    `json:"series_id"`
	Cover        string     `json:"cover"`
	Plot         string     `json:"plot"`
	Genre        string     `json:"genre"`
	ReleaseDate  string     `json:"releaseDate"`
	Rating       FlexFloat  `json:"rating"`
	LastModified FlexInt    `json:"last_modified"`
	CategoryID   FlexString `json:"category_id"`
}

// SeriesInfo holds the episodes of a series keyed by season number.
type SeriesInfo struct {
	Info     Series               `json:"info"`
	Episodes map[string][]Episode `json:"episodes"`
}

// Episode is one episode of a series.
type Episode struct {
	ID                 FlexString `json:"id"`
	EpisodeNum         FlexInt    `json:"episode_num"`
	Title              string     `json:"title"`
	ContainerExtension string     `json:"container_extension"`
	Season             FlexInt    `json:"season"`
	DirectSource       string     `json:"direct_source"`
}

// EPGListing is one programme entry. Title and Description are usually
// base64 encoded by the panel; use DecodeText to read them.
type EPGListing struct {
	ID             FlexString `json:"id"`
	EPGID          FlexString `json:"epg_id"`
	Title          string     `json:"title"`
	Lang           string     `json:"lang"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	Description    string     `json:"description"`
	ChannelID      string     `json:"channel_id"`
	StartTimestamp FlexInt    `json:"start_timestamp"`
	StopTimestamp  FlexInt    `json:"stop_timestamp"`
	NowPlaying     FlexInt    `json:"now_playing"`
	HasArchive     FlexInt    `json:"has_archive"`
}

// StartTime returns the programme start.
func (e EPGListing) StartTime() time.Time {
	return unixTime(e.StartTimestamp.Int())
}

// StopTime returns the programme end.
func (e EPGListing) StopTime() time.Time {
	return unixTime(e.StopTimestamp.Int())
}

// Decoded returns a copy with Title and Description decoded.
func (e EPGListing) Decoded() EPGListing {
	e.Title = DecodeText(e.Title)
	e.Description = DecodeText(e.Description)
	return e
}

// EPGResponse wraps the listings returned by the EPG actions.
type EPGResponse struct {
	EPGListings []EPGListing `json:"epg_listings"`
}

// DecodeText decodes a base64 EPG field. Text that is not valid base64, or
// that does not decode to UTF-8, is returned unchanged.
func DecodeText(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(trimmed)
		if err != nil {
			return s
		}
	}
	if !utf8.Valid(decoded) {
		return s
	}
	return string(decoded)
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// Panels are inconsistent about quoting numbers, so numeric fields accept
// both JSON numbers and strings. Empty strings and null decode to zero.

// FlexInt is an int64 that decodes from a number or a numeric string.
type FlexInt int64

// Int returns the value.
func (f FlexInt) Int() int64 { return int64(f) }

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw, ok := unquote(data)
	if !ok {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	// Some panels send floats ("1.0") for integer fields.
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// FlexFloat is a float64 that decodes from a number or a numeric string.
type FlexFloat float64

// Float returns the value.
func (f FlexFloat) Float() float64 { return float64(f) }

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw, ok := unquote(data)
	if !ok {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(n)
	return nil
}

// FlexString is a string that decodes from a JSON string or number.
type FlexString string

// String returns the value.
func (f FlexString) String() string { return string(f) }

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// unquote returns the literal text of a JSON scalar, stripping string
// quotes. ok is false for null and empty values.
func unquote(data []byte) (string, bool) {
	if bytes.Equal(data, []byte("null")) {
		return "", false
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return "", false
		}
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
