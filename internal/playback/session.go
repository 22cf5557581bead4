// Package playback drives a streaming engine through loading, playback,
// error recovery and channel switching for a single viewer.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/metrics"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/manifest"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultLoadTimeout bounds the time from Start to a parsed manifest.
const DefaultLoadTimeout = 15 * time.Second

// Session errors.
var (
	ErrSessionClosed = errors.New("playback session is closed")
	ErrInvalidURL    = errors.New("invalid stream URL")
)

type eventKind int

const (
	evStart eventKind = iota
	evAttach
	evSwitch
	evStep
	evClose
	evManifestParsed
	evEngineError
	evDeadline
	evBarrier
)

// event is one entry of the session mailbox. Events carrying done are
// synchronous calls; the loop closes done once the event is applied.
type event struct {
	kind     eventKind
	gen      uint64
	url      string
	index    int
	channels []Channel
	err      EngineError

	ok   bool
	fail error
	done chan struct{}
}

// Session is one viewer's playback state machine. Every user action, engine
// callback and deadline expiry is applied in order by a single goroutine.
// A closed session cannot be reused.
type Session struct {
	id            string
	newEngine     EngineFactory
	clock         clockwork.Clock
	loadTimeout   time.Duration
	proxyEndpoint string
	logger        *slog.Logger
	hooks         []func(Transition)

	mu     sync.Mutex
	queue  []*event
	closed bool
	wake   chan struct{}
	exited chan struct{}

	snapMu sync.RWMutex
	snap   Snapshot

	// Owned by the event loop.
	state        State
	activeURL    string
	playbackURL  string
	loadDeadline time.Time
	channels     []Channel
	currentIndex int
	message      string
	engine       Engine
	generation   uint64
	deadline     *Scheduler
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the clock used for the load deadline.
func WithClock(clock clockwork.Clock) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithProxyEndpoint routes every stream through the proxy at endpoint.
func WithProxyEndpoint(endpoint string) SessionOption {
	return func(s *Session) {
		s.proxyEndpoint = endpoint
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithTransitionHook registers fn to observe every state change. Hooks run
// on the session goroutine and must not call back into the session.
func WithTransitionHook(fn func(Transition)) SessionOption {
	return func(s *Session) {
		s.hooks = append(s.hooks, fn)
	}
}

// NewSession creates an idle session that builds engines with newEngine.
func NewSession(newEngine EngineFactory, opts ...SessionOption) *Session {
	s := &Session{
		id:           uuid.NewString(),
		newEngine:    newEngine,
		clock:        clockwork.NewRealClock(),
		loadTimeout:  DefaultLoadTimeout,
		logger:       slog.Default(),
		wake:         make(chan struct{}, 1),
		exited:       make(chan struct{}),
		currentIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "playback"), slog.String("session_id", s.id))
	s.deadline = NewScheduler(s.clock)
	s.publish()

	go s.run()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start tears down the current stream and starts loading rawURL.
func (s *Session) Start(rawURL string) error {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	ev := s.call(&event{kind: evStart, url: rawURL})
	return ev.fail
}

// AttachChannels replaces the channel list and marks index as current. It
// does not start playback. An out of range index is rejected.
func (s *Session) AttachChannels(channels []Channel, index int) bool {
	list := make([]Channel, len(channels))
	copy(list, channels)
	return s.call(&event{kind: evAttach, channels: list, index: index}).ok
}

// SwitchChannel starts the channel at index of the attached list. An out of
// range index is ignored and reported as false.
func (s *Session) SwitchChannel(index int) bool {
	return s.call(&event{kind: evSwitch, index: index}).ok
}

// Step switches delta channels away from the current one, wrapping around
// the ends of the list.
func (s *Session) Step(delta int) bool {
	return s.call(&event{kind: evStep, index: delta}).ok
}

// Close releases the engine and timers and enters the closed state. It is
// safe to call more than once.
func (s *Session) Close() {
	s.call(&event{kind: evClose})
	<-s.exited
}

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.exited
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap
}

// call posts ev and waits until the loop has applied it.
func (s *Session) call(ev *event) *event {
	ev.done = make(chan struct{})
	if !s.post(ev) {
		ev.fail = ErrSessionClosed
		return ev
	}
	<-ev.done
	return ev
}

// post appends ev to the mailbox. It reports false once the session has
// closed.
func (s *Session) post(ev *event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Session) next() (*event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	ev := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return ev, true
}

func (s *Session) run() {
	defer close(s.exited)
	for range s.wake {
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			s.apply(ev)
			s.publish()
			if ev.done != nil {
				close(ev.done)
			}
			if s.state == StateClosed {
				s.shutdown()
				return
			}
		}
	}
}

// shutdown rejects everything still queued.
func (s *Session) shutdown() {
	s.mu.Lock()
	s.closed = true
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, ev := range pending {
		if ev.done != nil {
			ev.fail = ErrSessionClosed
			close(ev.done)
		}
	}
}

// apply is the single transition function. Engine events from an older
// generation belong to a torn down engine and are dropped.
func (s *Session) apply(ev *event) {
	switch ev.kind {
	case evStart:
		s.currentIndex = s.indexOf(ev.url)
		s.start(ev.url)
		ev.ok = true

	case evAttach:
		if ev.index < 0 || ev.index >= len(ev.channels) {
			return
		}
		s.channels = ev.channels
		s.currentIndex = ev.index
		ev.ok = true

	case evSwitch:
		ev.ok = s.switchTo(ev.index)

	case evStep:
		if len(s.channels) == 0 {
			return
		}
		n := len(s.channels)
		ev.ok = s.switchTo(((s.currentIndex+ev.index)%n + n) % n)

	case evClose:
		s.teardown()
		s.setState(StateClosed, "")

	case evManifestParsed:
		if ev.gen != s.generation || s.state != StateLoading {
			return
		}
		s.deadline.Cancel()
		s.setState(StatePlaying, "")

	case evEngineError:
		if ev.gen != s.generation {
			return
		}
		s.handleEngineError(ev.err)

	case evDeadline:
		if ev.gen != s.generation || s.state != StateLoading {
			return
		}
		s.logger.Warn("stream load deadline elapsed",
			slog.String("url", s.activeURL),
			slog.Duration("timeout", s.loadTimeout),
		)
		s.teardown()
		s.setState(StateError, MessageLoadTimeout)

	case evBarrier:
	}
}

func (s *Session) switchTo(index int) bool {
	if index < 0 || index >= len(s.channels) {
		return false
	}
	s.currentIndex = index
	s.start(s.channels[index].URL)
	return true
}

// start replaces the current engine with a fresh one loading rawURL and arms
// the load deadline.
func (s *Session) start(rawURL string) {
	s.teardown()

	gen := s.generation
	s.activeURL = rawURL
	s.playbackURL = rawURL
	if s.proxyEndpoint != "" {
		s.playbackURL = manifest.ProxyURL(s.proxyEndpoint, rawURL)
	}
	s.loadDeadline = s.clock.Now().Add(s.loadTimeout)
	s.setState(StateLoading, "")

	s.deadline.Schedule(s.loadTimeout, func() {
		s.post(&event{kind: evDeadline, gen: gen})
	})

	engine := s.newEngine(&engineEvents{session: s, gen: gen})
	s.engine = engine
	if err := engine.Load(s.playbackURL); err != nil {
		s.logger.Error("engine failed to load stream",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		s.teardown()
		s.setState(StateError, MessageLoadFailed)
	}
}

func (s *Session) handleEngineError(e EngineError) {
	class, fatal := Classify(e)
	if !fatal {
		s.logger.Debug("engine reported recoverable error", slog.String("error", e.Error()))
		return
	}
	if s.engine == nil {
		return
	}

	switch class {
	case ClassNetwork:
		s.logger.Warn("network error, restarting load", slog.String("error", e.Error()))
		metrics.RecordPlaybackRecovery(class.String())
		s.engine.StartLoad()
	case ClassMedia:
		s.logger.Warn("media error, resetting media pipeline", slog.String("error", e.Error()))
		metrics.RecordPlaybackRecovery(class.String())
		s.engine.RecoverMediaError()
	default:
		observability.WithError(s.logger, e).Error("unrecoverable playback error",
			slog.String("url", s.activeURL),
		)
		s.teardown()
		s.setState(StateError, UserMessage(e))
	}
}

// teardown cancels the deadline and destroys the engine. Bumping the
// generation orphans every callback the old engine still has in flight.
func (s *Session) teardown() {
	s.deadline.Cancel()
	if s.engine != nil {
		s.engine.Destroy()
		s.engine = nil
	}
	s.generation++
}

func (s *Session) setState(to State, message string) {
	from := s.state
	if !CanTransition(from, to) {
		s.logger.Warn("rejected illegal transition",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
		return
	}
	s.state = to
	s.message = message
	if to != StateLoading {
		s.loadDeadline = time.Time{}
	}

	t := Transition{From: from, To: to, URL: s.activeURL, Message: message, At: s.clock.Now()}
	s.logger.Info("playback state changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("url", s.activeURL),
	)
	for _, hook := range s.hooks {
		hook(t)
	}
}

func (s *Session) indexOf(rawURL string) int {
	for i, ch := range s.channels {
		if ch.URL == rawURL {
			return i
		}
	}
	return -1
}

func (s *Session) publish() {
	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		ActiveURL:    s.activeURL,
		PlaybackURL:  s.playbackURL,
		LoadDeadline: s.loadDeadline,
		CurrentIndex: s.currentIndex,
		ChannelCount: len(s.channels),
		Message:      s.message,
	}
	if s.currentIndex >= 0 && s.currentIndex < len(s.channels) {
		ch := s.channels[s.currentIndex]
		snap.Channel = &ch
	}

	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()
}

// barrier waits until every event posted before it has been applied.
func (s *Session) barrier() {
	s.call(&event{kind: evBarrier})
}

// engineEvents forwards callbacks of one engine generation into the
// session mailbox.
type engineEvents struct {
	session *Session
	gen     uint64
}

func (e *engineEvents) ManifestParsed() {
	e.session.post(&event{kind: evManifestParsed, gen: e.gen})
}

func (e *engineEvents) Error(err EngineError) {
	e.session.post(&event{kind: evEngineError, gen: e.gen, err: err})
}
