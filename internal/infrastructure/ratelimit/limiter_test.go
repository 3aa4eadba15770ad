package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newTestLimiter(clock *time.Time) *KeyedLimiter {
	l := New(Config{Rate: rate.Every(time.Second), Burst: 2, IdleTTL: time.Minute})
	l.now = func() time.Time { return *clock }
	return l
}

func TestKeyedLimiter_BurstThenRefill(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)

	l.Allow("a")
	l.Allow("a")
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestKeyedLimiter_SweepsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	clock = clock.Add(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}
