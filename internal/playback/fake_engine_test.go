package playback

import (
	"errors"
	"sync"
)

// fakeEngine records calls and lets tests emit callbacks.
type fakeEngine struct {
	events EngineEvents

	mu              sync.Mutex
	loadedURL       string
	startLoads      int
	mediaRecoveries int
	destroyed       bool
	callsAfterDone  int
}

func (e *fakeEngine) Load(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadedURL = url
	if url == failingURL {
		return errors.New("cannot attach media")
	}
	return nil
}

func (e *fakeEngine) StartLoad() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		e.callsAfterDone++
	}
	e.startLoads++
}

func (e *fakeEngine) RecoverMediaError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		e.callsAfterDone++
	}
	e.mediaRecoveries++
}

func (e *fakeEngine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
}

// engineCalls is a point-in-time copy of a fakeEngine's counters.
type engineCalls struct {
	loadedURL       string
	startLoads      int
	mediaRecoveries int
	destroyed       bool
	callsAfterDone  int
}

func (e *fakeEngine) snapshot() engineCalls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return engineCalls{
		loadedURL:       e.loadedURL,
		startLoads:      e.startLoads,
		mediaRecoveries: e.mediaRecoveries,
		destroyed:       e.destroyed,
		callsAfterDone:  e.callsAfterDone,
	}
}

// engineRecorder is an EngineFactory that keeps every engine it built.
type engineRecorder struct {
	mu      sync.Mutex
	engines []*fakeEngine
}

func (r *engineRecorder) factory(events EngineEvents) Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &fakeEngine{events: events}
	r.engines = append(r.engines, e)
	return e
}

func (r *engineRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

func (r *engineRecorder) get(i int) *fakeEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines[i]
}

func (r *engineRecorder) last() *fakeEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines[len(r.engines)-1]
}

// live returns how many engines have not been destroyed.
func (r *engineRecorder) live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.engines {
		if !e.snapshot().destroyed {
			n++
		}
	}
	return n
}

const failingURL = "http://origin.example/broken.m3u8"
