// Package events keeps a feed of playback state transitions for API
// clients: a bounded history plus live subscriptions.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
)

const (
	// DefaultMaxEvents is the number of transitions kept in memory.
	DefaultMaxEvents = 500
	// DefaultBufferSize is the per-subscriber event buffer.
	DefaultBufferSize = 64
	// HeartbeatInterval is the idle interval between stream heartbeats.
	HeartbeatInterval = 30 * time.Second
)

// Event is one recorded state transition. URL has its credentials masked.
type Event struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	URL     string    `json:"url,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Stats summarises the feed.
type Stats struct {
	TotalEvents int64            `json:"total_events"`
	ByState     map[string]int64 `json:"by_state"`
	Subscribers int              `json:"subscribers"`
	LastError   *Event           `json:"last_error,omitempty"`
	OldestEvent *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent *time.Time       `json:"newest_event,omitempty"`
}

// Subscriber receives events recorded after it subscribed. Events is
// closed when the subscription ends.
type Subscriber struct {
	ID     string
	Events chan Event
}

// Service records transitions and fans them out to subscribers.
type Service struct {
	mu          sync.RWMutex
	events      []Event
	maxEvents   int
	subscribers map[string]*Subscriber
	total       int64
	byState     map[string]int64
	lastError   *Event
}

// New creates an empty feed holding up to maxEvents transitions. A
// non-positive maxEvents uses DefaultMaxEvents.
func New(maxEvents int) *Service {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Service{
		events:      make([]Event, 0, maxEvents),
		maxEvents:   maxEvents,
		subscribers: make(map[string]*Subscriber),
		byState:     make(map[string]int64),
	}
}

// Record adds a transition. Its signature matches a session transition
// hook. Subscribers whose buffer is full miss the event.
func (s *Service) Record(tr playback.Transition) {
	ev := Event{
		ID:      ulid.Make().String(),
		At:      tr.At,
		From:    tr.From.String(),
		To:      tr.To.String(),
		URL:     urlutil.MaskCredentials(tr.URL),
		Message: tr.Message,
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byState[ev.To]++
	if tr.To == playback.StateError {
		last := ev
		s.lastError = &last
	}

	if len(s.events) >= s.maxEvents {
		s.events = s.events[1:]
	}
	s.events = append(s.events, ev)

	for _, sub := range s.subscribers {
		select {
		case sub.Events <- ev:
		default:
		}
	}
}

// Recent returns up to limit of the newest events, oldest first. A
// non-positive limit returns everything held.
func (s *Service) Recent(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, limit)
	copy(out, s.events[len(s.events)-limit:])
	return out
}

// Subscribe registers a subscriber until ctx is done or Unsubscribe is
// called.
func (s *Service) Subscribe(ctx context.Context) *Subscriber {
	sub := &Subscriber{
		ID:     ulid.Make().String(),
		Events: make(chan Event, DefaultBufferSize),
	}

	s.mu.Lock()
	s.subscribers[sub.ID] = sub
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Unsubscribe(sub.ID)
	}()
	return sub
}

// Unsubscribe ends a subscription. Unknown ids are ignored.
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Events)
		delete(s.subscribers, id)
	}
}

// Stats returns a copy of the feed counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalEvents: s.total,
		ByState:     make(map[string]int64, len(s.byState)),
		Subscribers: len(s.subscribers),
	}
	for state, n := range s.byState {
		stats.ByState[state] = n
	}
	if s.lastError != nil {
		last := *s.lastError
		stats.LastError = &last
	}
	if len(s.events) > 0 {
		oldest := s.events[0].At
		newest := s.events[len(s.events)-1].At
		stats.OldestEvent = &oldest
		stats.NewestEvent = &newest
	}
	return stats
}
