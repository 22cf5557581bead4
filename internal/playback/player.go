package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
)

// ErrNoSession is returned when the player has nothing playing.
var ErrNoSession = errors.New("no active playback session")

// Player owns the single live session of a viewer. Starting new playback
// closes the previous session before the next one is created.
type Player struct {
	newEngine EngineFactory
	opts      []SessionOption

	mu      sync.Mutex
	session *Session
}

// NewPlayer creates a Player whose sessions use newEngine and opts.
func NewPlayer(newEngine EngineFactory, opts ...SessionOption) *Player {
	return &Player{newEngine: newEngine, opts: opts}
}

// Play closes the current session and starts rawURL in a new one. An
// invalid URL leaves the current session untouched.
func (p *Player) Play(rawURL string) (Snapshot, error) {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.replaceLocked()
	if err := s.Start(rawURL); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// PlayChannels closes the current session, attaches channels to a new one
// and starts the channel at index.
func (p *Player) PlayChannels(channels []Channel, index int) (Snapshot, error) {
	if index < 0 || index >= len(channels) {
		return Snapshot{}, errors.New("channel index out of range")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.replaceLocked()
	s.AttachChannels(channels, index)
	if !s.SwitchChannel(index) {
		return s.Snapshot(), ErrSessionClosed
	}
	return s.Snapshot(), nil
}

// SwitchChannel switches the current session to index. It reports false
// when there is no session or index is out of range.
func (p *Player) SwitchChannel(index int) (Snapshot, bool) {
	s := p.current()
	if s == nil {
		return Snapshot{}, false
	}
	ok := s.SwitchChannel(index)
	return s.Snapshot(), ok
}

// Step moves delta channels from the current one, wrapping around.
func (p *Player) Step(delta int) (Snapshot, bool) {
	s := p.current()
	if s == nil {
		return Snapshot{}, false
	}
	ok := s.Step(delta)
	return s.Snapshot(), ok
}

// Snapshot returns the state of the current session.
func (p *Player) Snapshot() (Snapshot, error) {
	s := p.current()
	if s == nil {
		return Snapshot{}, ErrNoSession
	}
	return s.Snapshot(), nil
}

// Stop closes the current session.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return ErrNoSession
	}
	p.session.Close()
	p.session = nil
	return nil
}

func (p *Player) current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Player) replaceLocked() *Session {
	if p.session != nil {
		p.session.Close()
	}
	p.session = NewSession(p.newEngine, p.opts...)
	return p.session
}
