package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.InDelta(t, float64(time.Minute), float64(l.RetryAfter("a")), float64(time.Millisecond))

	// other keys have their own bucket
	assert.True(t, l.Allow("b"))

	clock = clock.Add(30 * time.Second)
	assert.False(t, l.Allow("a"))
	assert.InDelta(t, float64(30*time.Second), float64(l.RetryAfter("a")), float64(time.Millisecond))

	clock = clock.Add(31 * time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterCapsAtBurst(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, time.Second)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("k"))
	clock = clock.Add(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	assert.Equal(t, time.Duration(0), l.RetryAfter("unknown"))
}

func TestLimiterPrunesIdleKeys(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return clock }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, l.Allow(ip))
	}
	assert.Equal(t, 3, l.Len())

	// .3 keeps draining its bucket and stays tracked
	clock = clock.Add(90 * time.Second)
	assert.True(t, l.Allow("10.0.0.3"))
	assert.Equal(t, 3, l.Len())

	clock = clock.Add(40 * time.Second)
	assert.True(t, l.Allow("10.0.0.4"))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, time.Duration(0), l.RetryAfter("10.0.0.1"))
}
