package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker(3, 10*time.Second, 1)
	cb.now = func() time.Time { return now }

	t.Run("opens after threshold", func(t *testing.T) {
		for range 3 {
			assert.True(t, cb.Allow())
			cb.RecordFailure()
		}
		assert.Equal(t, CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("half-open after reset timeout", func(t *testing.T) {
		now = now.Add(10 * time.Second)
		assert.True(t, cb.Allow())
		assert.Equal(t, CircuitHalfOpen, cb.State())
		assert.False(t, cb.Allow(), "only one probe allowed")
	})

	t.Run("probe failure reopens", func(t *testing.T) {
		cb.RecordFailure()
		assert.Equal(t, CircuitOpen, cb.State())
	})

	t.Run("probe success closes", func(t *testing.T) {
		now = now.Add(10 * time.Second)
		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, CircuitClosed, cb.State())
		assert.Equal(t, 0, cb.Failures())
	})

	t.Run("reset", func(t *testing.T) {
		for range 3 {
			cb.RecordFailure()
		}
		cb.Reset()
		assert.Equal(t, CircuitClosed, cb.State())
		assert.True(t, cb.Allow())
	})
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
