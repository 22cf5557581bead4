package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level string) *slog.Logger {
	return NewLoggerWithWriter(config.LoggingConfig{Level: level, Format: "json"}, buf)
}

func TestNewLoggerWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"stream_id":101`},
		{"text", "stream_id=101"},
		{"", `"stream_id":101`},
	}
	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: tt.format}, &buf).
				Info("channel switched", slog.Int("stream_id", 101))

			assert.Contains(t, buf.String(), "channel switched")
			assert.Contains(t, buf.String(), tt.want)
			if tt.format != "text" {
				var parsed map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
			}
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", slog.LevelDebug, true},
		{"debug hidden at info level", "info", slog.LevelDebug, false},
		{"info logs at info level", "info", slog.LevelInfo, true},
		{"info hidden at warn level", "warn", slog.LevelInfo, false},
		{"error logs at warn level", "warn", slog.LevelError, true},
		{"trace hidden at debug level", "debug", LevelTrace, false},
		{"trace logs at trace level", "trace", LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newTestLogger(&buf, tt.configLevel)
			logger.Log(context.Background(), tt.logLevel, "probe")

			if tt.shouldLog {
				assert.Contains(t, buf.String(), "probe")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestTraceLevelDisplay(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, "trace")
	logger.Log(context.Background(), LevelTrace, "trace message")

	assert.Contains(t, buf.String(), `"level":"TRACE"`)
	assert.NotContains(t, buf.String(), "DEBUG-4")
}

func TestNewLogger_CustomTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggingConfig{Level: "info", Format: "json", TimeFormat: "2006-01-02"}
	NewLoggerWithWriter(cfg, &buf).Info("test message")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	ts, ok := parsed["time"].(string)
	require.True(t, ok)
	_, err := time.Parse("2006-01-02", ts)
	assert.NoError(t, err)
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, "info")

	WithComponent(WithRequestID(WithApp(logger, "elitewave"), "req-1"), "proxy").
		Info("chained")

	output := buf.String()
	assert.Contains(t, output, `"app":"elitewave"`)
	assert.Contains(t, output, `"request_id":"req-1"`)
	assert.Contains(t, output, `"component":"proxy"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, "info")

	WithError(logger, errors.New("something went wrong")).Info("test")
	assert.Contains(t, buf.String(), `"error":"something went wrong"`)

	buf.Reset()
	WithError(logger, nil).Info("test")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestTimedOperationWithError(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newTestLogger(&buf, "debug")

		var err error
		done := TimedOperationWithError(context.Background(), logger, "connect_profile", &err)
		done()

		assert.Contains(t, buf.String(), "operation started")
		assert.Contains(t, buf.String(), "operation completed")
		assert.Contains(t, buf.String(), "connect_profile")
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newTestLogger(&buf, "info")

		var err error
		done := TimedOperationWithError(context.Background(), logger, "connect_profile", &err)
		err = errors.New("panel unreachable")
		done()

		assert.Contains(t, buf.String(), "operation failed")
		assert.Contains(t, buf.String(), "panel unreachable")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}

func TestSensitiveFieldRedaction(t *testing.T) {
	for _, field := range []string{"password", "Password", "token", "api_key", "secret"} {
		t.Run(field, func(t *testing.T) {
			var buf bytes.Buffer
			newTestLogger(&buf, "info").Info("test", slog.String(field, "hunter2"))

			assert.NotContains(t, buf.String(), "hunter2")
			assert.Contains(t, buf.String(), "[REDACTED]")
		})
	}
}

func TestSensitiveFieldRedaction_Group(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf, "info").Info("profile",
		slog.Group("profile",
			slog.String("username", "alice"),
			slog.String("password", "hunter2"),
		),
	)

	assert.Contains(t, buf.String(), "alice")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestSensitiveStructFieldRedaction(t *testing.T) {
	type credentials struct {
		Username string
		Password string `masq:"secret"`
	}

	var buf bytes.Buffer
	newTestLogger(&buf, "info").Info("saving", slog.Any("creds", credentials{
		Username: "alice",
		Password: "hunter2",
	}))

	assert.Contains(t, buf.String(), "alice")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestURLCredentialRedaction(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		secret string
		want   string
	}{
		{
			name:   "xtream live path",
			url:    "http://panel:8080/live/alice/hunter2/101.m3u8",
			secret: "hunter2",
			want:   "/live/[REDACTED]/[REDACTED]/101.m3u8",
		},
		{
			name:   "password query",
			url:    "http://panel/player_api.php?username=alice&password=hunter2",
			secret: "hunter2",
			want:   "password=[REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newTestLogger(&buf, "info").Info("request", slog.String("url", tt.url))

			assert.NotContains(t, buf.String(), tt.secret)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNonSensitiveDataNotRedacted(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf, "info").Info("request",
		slog.String("username", "john"),
		slog.String("url", "http://example.com/hls/seg1.ts?n=1"),
		slog.Int("count", 42),
	)

	output := buf.String()
	assert.Contains(t, output, "john")
	assert.Contains(t, output, "http://example.com/hls/seg1.ts?n=1")
	assert.Contains(t, output, "42")
	assert.NotContains(t, output, "[REDACTED]")
}
