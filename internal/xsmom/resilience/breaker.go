// Package resilience wraps external-dependency calls (Postgres, Redis)
// made by the SQL-backed adapter in a circuit breaker.
package resilience

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker wraps a named operation with trip-on-consecutive-failure and
// trip-on-error-rate semantics.
type Breaker struct{ cb *cb.CircuitBreaker }

// New constructs a breaker that trips after 3 consecutive failures, or
// after a 5% failure rate once at least 20 requests have been observed
// in the rolling interval.
func New(name string) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) { return b.cb.Execute(fn) }

// State reports the breaker's current state name.
func (b *Breaker) State() string { return b.cb.State().String() }
