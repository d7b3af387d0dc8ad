package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterFailureThreshold(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		b.RecordFailure()
		assert.True(t, b.Allow())
	}
	b.RecordFailure()

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_HalfOpenAfterTimeoutThenCloses(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Millisecond})
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailureInHalfOpenReopens(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Millisecond})
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	require := assert.New(t)
	require.True(b.Allow())
	require.Equal(StateHalfOpen, b.State())

	b.RecordFailure()
	require.Equal(StateOpen, b.State())
}

func TestBreaker_SuccessResetsFailureCountWhenClosed(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestManager_ReturnsSameBreakerPerEndpoint(t *testing.T) {
	m := NewManager(DefaultConfig())
	a := m.Get("endpoint-a")
	aAgain := m.Get("endpoint-a")
	b := m.Get("endpoint-b")

	assert.Same(t, a, aAgain)
	assert.NotSame(t, a, b)
}
