// Package observability builds the process logger and carries request
// scoped logging state through contexts. Every record passes through the
// credential redactor before it is written.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
)

// LevelTrace sits below debug. The stream proxy logs each segment at it.
const LevelTrace = slog.Level(-8)

var levels = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a configured level name to a slog level. Unknown names
// mean info.
func parseLevel(name string) slog.Level {
	if level, ok := levels[strings.ToLower(name)]; ok {
		return level
	}
	return slog.LevelInfo
}

// NewLoggerWithWriter builds a JSON logger, or a text logger when
// cfg.Format is "text", writing to w.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr(cfg.TimeFormat, newRedactor()),
	}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// replaceAttr formats the time with timeFormat when set, names the trace
// level and redacts everything else.
func replaceAttr(timeFormat string, redact func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return redact(groups, a)
		}
		switch a.Key {
		case slog.TimeKey:
			if t, ok := a.Value.Any().(time.Time); ok && timeFormat != "" {
				return slog.String(slog.TimeKey, t.Format(timeFormat))
			}
			return a
		case slog.LevelKey:
			if level, ok := a.Value.Any().(slog.Level); ok && level <= LevelTrace {
				return slog.String(slog.LevelKey, "TRACE")
			}
			return a
		}
		return redact(groups, a)
	}
}

// SetDefault installs logger as the slog default.
func SetDefault(logger *slog.Logger) { slog.SetDefault(logger) }

// WithApp tags records with the application name.
func WithApp(logger *slog.Logger, app string) *slog.Logger {
	return logger.With(slog.String("app", app))
}

// WithComponent tags records with the subsystem that wrote them.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithRequestID tags records with an HTTP request id.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String("request_id", requestID))
}

// WithError tags records with err. A nil err returns logger unchanged.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}

// TimedOperationWithError logs that operation started and returns a func
// that logs its outcome and duration. *errPtr is read when that func runs,
// so defer it over a named error result:
//
//	defer observability.TimedOperationWithError(ctx, logger, "connect_profile", &err)()
func TimedOperationWithError(ctx context.Context, logger *slog.Logger, operation string, errPtr *error) func() {
	start := time.Now()
	logger.DebugContext(ctx, "operation started", slog.String("operation", operation))

	return func() {
		attrs := []slog.Attr{
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
		}
		if errPtr != nil && *errPtr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "operation failed", append(attrs, slog.String("error", (*errPtr).Error()))...)
			return
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "operation completed", attrs...)
	}
}
