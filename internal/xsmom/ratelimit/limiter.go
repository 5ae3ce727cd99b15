// Package ratelimit provides per-adapter-instance rate limiting for
// SQL-backed Market Data Adapter loads.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter provides per-key rate limiting using a token bucket per key
// (e.g. one key per backtest adapter instance).
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter creates a new rate limiter with the specified RPS and burst
// capacity.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Allow returns true if a request for the specified key is allowed right
// now, without blocking.
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// Wait blocks until a request for the specified key is allowed or ctx is
// cancelled.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// SetRPS updates the requests-per-second for all keys.
func (l *Limiter) SetRPS(rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rps = rps
	for _, limiter := range l.limiters {
		limiter.SetLimit(rate.Limit(rps))
	}
}

// Stats reports token availability per key, useful for a status
// endpoint.
func (l *Limiter) Stats() map[string]Stat {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Stat, len(l.limiters))
	now := time.Now()
	for key, limiter := range l.limiters {
		out[key] = Stat{
			Key:             key,
			RPS:             float64(limiter.Limit()),
			Burst:           limiter.Burst(),
			TokensAvailable: limiter.Tokens(),
			CheckedAt:       now,
		}
	}
	return out
}

// Stat is a point-in-time snapshot of one key's limiter.
type Stat struct {
	Key             string
	RPS             float64
	Burst           int
	TokensAvailable float64
	CheckedAt       time.Time
}
