package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs at most one task at a time. Scheduling a task always
// cancels the previous one first, and a cancelled task never runs even if
// its timer already fired.
type Scheduler struct {
	clock clockwork.Clock

	mu    sync.Mutex
	timer clockwork.Timer
	due   time.Time
	seq   uint64
}

// NewScheduler creates a Scheduler driven by clock. A nil clock means the
// wall clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Schedule runs fn after d, replacing any pending task.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	seq := s.seq
	s.due = s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() { s.fire(seq, fn) })
}

// fire runs fn for the task scheduled as seq. The task stays pending until
// fn returns.
func (s *Scheduler) fire(seq uint64, fn func()) {
	s.mu.Lock()
	stale := s.seq != seq || s.timer == nil
	s.mu.Unlock()
	if stale {
		return
	}

	fn()

	s.mu.Lock()
	if s.seq == seq {
		s.timer = nil
	}
	s.mu.Unlock()
}

// Cancel stops the pending task. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// Pending reports whether a task is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) cancelLocked() bool {
	s.seq++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}
