// Package ratelimit provides a per-key token bucket limiter.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config sets the bucket parameters.
type Config struct {
	// Rate is the sustained number of events per second per key.
	Rate rate.Limit
	// Burst is the bucket size.
	Burst int
	// IdleTTL drops a key's bucket after it has been unused this long.
	IdleTTL time.Duration
}

// LoginConfig allows a burst of 5 attempts, then one every 12 seconds.
func LoginConfig() Config {
	return Config{Rate: rate.Every(12 * time.Second), Burst: 5, IdleTTL: 15 * time.Minute}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key.
type KeyedLimiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// New creates a limiter.
func New(cfg Config) *KeyedLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	return &KeyedLimiter{cfg: cfg, now: time.Now, buckets: map[string]*bucket{}}
}

// Allow takes a token from key's bucket and reports whether one was available.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.cfg.Rate, l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops idle buckets at most once per IdleTTL. Caller holds mu.
func (l *KeyedLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
