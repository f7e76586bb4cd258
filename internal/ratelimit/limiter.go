// Package ratelimit bounds uploads per client address. This is the only state
// shared between concurrent requests.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneThreshold caps how many idle client entries accumulate before a sweep
const pruneThreshold = 4096

// Limiter is a per-key token bucket limiter. A key is allowed `requests`
// requests per `window`, with the full budget available as burst so a client
// can submit a batch and then wait out the refill.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastSeen func() time.Time
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// New creates a limiter allowing `requests` per `window` per key
func New(requests int, window time.Duration) *Limiter {
	return &Limiter{
		clients:  make(map[string]*client),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		idleTTL:  2 * window,
		lastSeen: time.Now,
	}
}

// Allow reports whether the key may proceed now
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.lastSeen()
	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= pruneThreshold {
			l.prune(now)
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.seen = now

	return c.limiter.Allow()
}

// prune drops entries idle long enough that their buckets are full again.
// Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.seen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
}
