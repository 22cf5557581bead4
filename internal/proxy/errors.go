package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrPlaylistTooLarge is returned when a playlist exceeds the configured
// buffering limit.
var ErrPlaylistTooLarge = errors.New("playlist exceeds maximum size")

// InputError reports a malformed proxy request.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// UpstreamError reports a non-2xx response from the stream origin. The
// status is relayed to the client as-is.
type UpstreamError struct {
	StatusCode int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, e.StatusText)
}

// newUpstreamError builds an UpstreamError from a response, keeping the
// origin's reason phrase when it sent one.
func newUpstreamError(resp *http.Response) *UpstreamError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &UpstreamError{StatusCode: resp.StatusCode, StatusText: text}
}

// errorBody is the JSON body for every failed proxy response.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
}
