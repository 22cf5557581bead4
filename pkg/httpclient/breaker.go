package httpclient

import (
	"sync"
	"time"
)

// CircuitState is the position of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{
	CircuitClosed:   "closed",
	CircuitOpen:     "open",
	CircuitHalfOpen: "half-open",
}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreaker fails fast against a panel that keeps failing. After
// threshold consecutive failures it opens; once resetTimeout has passed it
// lets up to halfOpenMax probes through, and the first probe outcome
// closes or reopens it.
type CircuitBreaker struct {
	threshold    int
	resetTimeout time.Duration
	halfOpenMax  int
	now          func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	probes   int
	openedAt time.Time
}

// NewCircuitBreaker returns a closed breaker. Non-positive threshold and
// halfOpenMax take the package defaults.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultCircuitThreshold
	}
	if halfOpenMax <= 0 {
		halfOpenMax = DefaultCircuitHalfOpenMax
	}
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		now:          time.Now,
	}
}

// Allow reports whether a request may be sent now. In half-open state each
// true answer uses up one probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
		cb.state, cb.probes = CircuitHalfOpen, 0
	}
	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitHalfOpen:
		if cb.probes >= cb.halfOpenMax {
			return false
		}
		cb.probes++
		return true
	}
	return false
}

// RecordSuccess clears the failure streak and closes a half-open breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	if cb.state == CircuitHalfOpen {
		cb.state, cb.probes = CircuitClosed, 0
	}
}

// RecordFailure extends the failure streak. A failed probe reopens the
// breaker at once.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.state == CircuitHalfOpen || (cb.state == CircuitClosed && cb.failures >= cb.threshold) {
		cb.state, cb.openedAt = CircuitOpen, cb.now()
	} else if cb.state == CircuitOpen {
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures is the current run of consecutive failures.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the breaker and forgets past failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state, cb.failures, cb.probes = CircuitClosed, 0, 0
}
