package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket per key. Every key starts full.
type Limiter struct {
	burst    int
	interval time.Duration // time to refill one token
	now      func() time.Time

	mu        sync.Mutex
	m         map[string]*rate.Limiter
	lastSweep time.Time
}

// New creates a limiter allowing bursts of burst requests and refilling one
// token every interval.
func New(burst int, interval time.Duration) *Limiter {
	return &Limiter{
		burst:    burst,
		interval: interval,
		now:      time.Now,
		m:        make(map[string]*rate.Limiter),
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.refill() {
		l.sweep(now)
	}
	lim, ok := l.m[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), l.burst)
		l.m[key] = lim
	}
	return lim
}

// refill is the time an empty bucket takes to fill up again.
func (l *Limiter) refill() time.Duration {
	return time.Duration(l.burst) * l.interval
}

// sweep drops buckets that have refilled completely. A full bucket behaves
// exactly like a new one, so this only bounds the map by recently active
// clients.
func (l *Limiter) sweep(now time.Time) {
	for k, lim := range l.m {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// RetryAfter is the wait until key has a token again.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	lim, ok := l.m[key]
	l.mu.Unlock()
	if !ok {
		return 0
	}
	tokens := lim.TokensAt(l.now())
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) * float64(l.interval))
}
