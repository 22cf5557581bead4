// Package hlsengine implements playback.Engine on top of the gohlslib HLS
// client. It is headless: segments are downloaded and demuxed but not
// rendered, which is enough to drive a session and validate a stream.
package hlsengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	gohlslib "github.com/bluenviron/gohlslib/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
)

// ErrDestroyed is returned by Load once the engine has been destroyed.
var ErrDestroyed = errors.New("engine destroyed")

// Default upstream client settings. Retries cover transient segment
// failures; the session handles anything beyond that.
const (
	defaultRetryAttempts         = 1
	defaultRetryDelay            = 500 * time.Millisecond
	defaultResponseHeaderTimeout = 10 * time.Second
)

// Engine is a playback.Engine backed by a gohlslib.Client. Restarting
// network loading or recovering from a media error both replace the client
// with a fresh one for the same URL.
type Engine struct {
	events playback.EngineEvents
	http   *httpclient.Client
	logger *slog.Logger

	// manifestLoaded survives client restarts: once the top-level manifest
	// has been fetched for the current URL, later playlist failures are
	// level load errors rather than a failed initial load.
	manifestLoaded atomic.Bool

	mu         sync.Mutex
	url        string
	client     *gohlslib.Client
	tracksSeen bool
	destroyed  bool
}

// Option configures engines built by NewFactory.
type Option func(*factoryConfig)

type factoryConfig struct {
	http   *httpclient.Client
	logger *slog.Logger
}

// WithHTTPClient sets the client used for playlist and segment requests.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(cfg *factoryConfig) {
		cfg.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *factoryConfig) {
		cfg.logger = logger
	}
}

// NewFactory returns a playback.EngineFactory producing gohlslib engines.
func NewFactory(opts ...Option) playback.EngineFactory {
	cfg := factoryConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.http == nil {
		cfg.http = newDefaultHTTPClient(cfg.logger)
	}
	logger := cfg.logger.With(slog.String("component", "hlsengine"))

	return func(events playback.EngineEvents) playback.Engine {
		return &Engine{events: events, http: cfg.http, logger: logger}
	}
}

func newDefaultHTTPClient(logger *slog.Logger) *httpclient.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = defaultResponseHeaderTimeout

	return httpclient.New(httpclient.Config{
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
		Logger:        logger,
		BaseClient:    &http.Client{Transport: transport},
	})
}

// Load starts fetching url. Progress and failures are reported through the
// engine's events.
func (e *Engine) Load(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return ErrDestroyed
	}
	e.url = url
	e.manifestLoaded.Store(false)
	return e.startLocked()
}

// StartLoad restarts loading from the manifest.
func (e *Engine) StartLoad() {
	e.restart("network")
}

// RecoverMediaError restarts the client. gohlslib has no separate media
// pipeline to reset, so this is the same operation as StartLoad.
func (e *Engine) RecoverMediaError() {
	e.restart("media")
}

// Destroy closes the client. Callbacks still in flight are discarded.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	client := e.client
	e.client = nil
	e.mu.Unlock()

	if client != nil {
		client.Close()
	}
}

func (e *Engine) restart(reason string) {
	e.mu.Lock()
	if e.destroyed || e.url == "" {
		e.mu.Unlock()
		return
	}
	old := e.client
	e.client = nil
	e.mu.Unlock()

	// Closing blocks until the client's goroutines exit, so it must not
	// hold the engine lock that the watcher needs.
	if old != nil {
		old.Close()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.logger.Debug("restarting hls client", slog.String("reason", reason))
	if err := e.startLocked(); err != nil {
		e.events.Error(playback.EngineError{
			Type:   playback.ErrorTypeOther,
			Detail: playback.DetailInternalException,
			Fatal:  true,
			Err:    err,
		})
	}
}

func (e *Engine) startLocked() error {
	obs := newObserver(e.http.StandardClient().Transport, &e.manifestLoaded)
	client := &gohlslib.Client{
		URI:        e.url,
		HTTPClient: &http.Client{Transport: obs},
		OnDownloadPrimaryPlaylist: func(u string) {
			e.logDownload(slog.LevelDebug, "downloading primary playlist", u)
		},
		OnDownloadStreamPlaylist: func(u string) {
			e.logDownload(slog.LevelDebug, "downloading stream playlist", u)
		},
		OnDownloadSegment: func(u string) {
			e.logDownload(observability.LevelTrace, "downloading segment", u)
		},
		OnDownloadPart: func(u string) {
			e.logDownload(observability.LevelTrace, "downloading part", u)
		},
		OnDecodeError: func(err error) {
			e.logger.Debug("stream decode error", slog.String("error", err.Error()))
		},
	}
	client.OnTracks = func(tracks []*gohlslib.Track) error {
		return e.onTracks(client, tracks)
	}

	if err := client.Start(); err != nil {
		return fmt.Errorf("starting hls client: %w", err)
	}
	e.client = client
	go e.watch(client, obs)
	return nil
}

func (e *Engine) logDownload(level slog.Level, msg, rawURL string) {
	e.logger.Log(context.Background(), level, msg,
		slog.String("url", urlutil.MaskCredentials(upstreamURL(rawURL))),
	)
}

func (e *Engine) onTracks(client *gohlslib.Client, tracks []*gohlslib.Track) error {
	e.mu.Lock()
	current := e.client == client && !e.destroyed
	first := !e.tracksSeen
	e.tracksSeen = true
	e.mu.Unlock()

	if !current {
		return nil
	}
	e.logger.Debug("stream tracks discovered", slog.Int("tracks", len(tracks)))
	if first {
		e.events.ManifestParsed()
	}
	return nil
}

// watch waits for client to stop and reports why, unless the client has
// been replaced or the engine destroyed in the meantime.
func (e *Engine) watch(client *gohlslib.Client, obs *observer) {
	err := client.Wait2()

	e.mu.Lock()
	current := e.client == client && !e.destroyed
	tracksSeen := e.tracksSeen
	e.mu.Unlock()

	if !current {
		return
	}
	if err == nil || errors.Is(err, gohlslib.ErrClientEOS) {
		e.logger.Info("stream ended")
		return
	}

	engineErr := classify(err, obs.result(), tracksSeen)
	e.logger.Debug("hls client stopped", slog.String("error", engineErr.Error()))
	e.events.Error(engineErr)
}

// classify turns a client failure into an engine error using what the
// observer saw on the wire.
func classify(err error, wire wireResult, tracksSeen bool) playback.EngineError {
	if wire.failed && wire.lastStatus != 0 {
		err = fmt.Errorf("%w (upstream status %d)", err, wire.lastStatus)
	}
	switch {
	case wire.failed && !wire.manifestLoaded:
		return playback.EngineError{Type: playback.ErrorTypeNetwork, Detail: playback.DetailManifestLoadError, Fatal: true, Err: err}
	case wire.failed && wire.lastFailedPlaylist:
		return playback.EngineError{Type: playback.ErrorTypeNetwork, Detail: playback.DetailLevelLoadError, Fatal: true, Err: err}
	case wire.failed:
		return playback.EngineError{Type: playback.ErrorTypeNetwork, Detail: playback.DetailFragmentLoadError, Fatal: true, Err: err}
	case !tracksSeen:
		return playback.EngineError{Type: playback.ErrorTypeOther, Detail: playback.DetailManifestParsingError, Fatal: true, Err: err}
	default:
		return playback.EngineError{Type: playback.ErrorTypeMedia, Detail: playback.DetailBufferAppendError, Fatal: true, Err: err}
	}
}
