package rpc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

func run(b *Breaker, ok bool) error {
	return b.Execute(func() error {
		if ok {
			return nil
		}
		return errFailed
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      BreakerSettings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      BreakerSettings{Interval: time.Minute, Timeout: time.Minute},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after default threshold",
			settings:      BreakerSettings{Interval: time.Minute, Timeout: time.Minute},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets consecutive failures",
			settings:      BreakerSettings{Interval: time.Minute, Timeout: time.Minute},
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
		{
			name: "ignored errors do not count",
			settings: BreakerSettings{
				Interval:  time.Minute,
				Timeout:   time.Minute,
				IsFailure: func(err error) bool { return !errors.Is(err, errFailed) },
			},
			requests:      []bool{false, false, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreaker("test", tt.settings)
			for _, ok := range tt.requests {
				_ = run(b, ok)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := NewBreaker("test", BreakerSettings{Interval: time.Minute, Timeout: time.Minute})

	require.NoError(t, run(b, true))
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, run(b, false), errFailed)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenHalfOpenClosed(t *testing.T) {
	var transitions []string
	now := time.Unix(1000, 0)

	b := NewBreaker("peer", BreakerSettings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	b.now = func() time.Time { return now }
	b.expiry = now.Add(time.Minute)

	_ = run(b, false)
	_ = run(b, false)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, run(b, true), ErrCircuitOpen)

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, run(b, true))
	require.NoError(t, run(b, true))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker("peer", BreakerSettings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	b.now = func() time.Time { return now }

	_ = run(b, false)
	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	_ = run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := NewBreaker("peer", BreakerSettings{})
	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}
