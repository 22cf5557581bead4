package urlutil

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"panel.example.com", "http://panel.example.com"},
		{"panel.example.com:8080", "http://panel.example.com:8080"},
		{"https://panel.example.com/", "https://panel.example.com"},
		{"  http://localhost:8080//  ", "http://localhost:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeBaseURL(tt.input), tt.input)
	}
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("http://h/x"))
	assert.True(t, IsRemoteURL("https://h/x"))
	assert.False(t, IsRemoteURL("/x"))
	assert.False(t, IsRemoteURL("file:///x"))
	assert.False(t, IsRemoteURL(""))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("http://panel.example.com:8080"))
	assert.NoError(t, ValidateURL("https://panel.example.com"))

	for _, bad := range []string{"", "panel.example.com", "ftp://panel", "http://", "http://%zz"} {
		assert.Error(t, ValidateURL(bad), bad)
	}
}

func TestMaskCredentials(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "live path",
			input:    "http://h:8080/live/alice/s3cret/101.m3u8",
			expected: "http://h:8080/live/[REDACTED]/[REDACTED]/101.m3u8",
		},
		{
			name:     "movie path",
			input:    "http://h/movie/alice/s3cret/7.mp4",
			expected: "http://h/movie/[REDACTED]/[REDACTED]/7.mp4",
		},
		{
			name:     "query password",
			input:    "http://h/player_api.php?username=alice&password=s3cret&action=get_live_streams",
			expected: "http://h/player_api.php?username=alice&password=[REDACTED]&action=get_live_streams",
		},
		{
			name:     "case insensitive",
			input:    "http://h/api?PASSWORD=s3cret",
			expected: "http://h/api?PASSWORD=[REDACTED]",
		},
		{
			name:     "embedded in error text",
			input:    `Get "http://h/live/alice/s3cret/1.ts": connection refused`,
			expected: `Get "http://h/live/[REDACTED]/[REDACTED]/1.ts": connection refused`,
		},
		{
			name:     "nothing to mask",
			input:    "http://h/hls/segment1.ts?n=1",
			expected: "http://h/hls/segment1.ts?n=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskCredentials(tt.input))
		})
	}
}

func TestRequestBaseURL(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://tv.local:8080/stream-proxy?url=x", nil)
		assert.Equal(t, "http://tv.local:8080/stream-proxy", RequestBaseURL(r))
	})

	t.Run("tls", func(t *testing.T) {
		r := httptest.NewRequest("GET", "https://tv.local/stream-proxy", nil)
		r.TLS = &tls.ConnectionState{}
		assert.Equal(t, "https://tv.local/stream-proxy", RequestBaseURL(r))
	})

	t.Run("forwarded headers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "http://10.0.0.2:8080/stream-proxy?url=x", nil)
		r.Header.Set("X-Forwarded-Proto", "https, http")
		r.Header.Set("X-Forwarded-Host", "tv.example.com")
		assert.Equal(t, "https://tv.example.com/stream-proxy", RequestBaseURL(r))
	})
}
