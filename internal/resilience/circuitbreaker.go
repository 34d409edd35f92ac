// Package resilience wraps gobreaker to guard partition worker respawns:
// a worker that keeps crashing trips the breaker instead of being respawned
// forever, and the engine surfaces that as Unhealthy.
package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"marketpulse/internal/observability"
)

// WorkerBreakerConfig controls how many consecutive worker faults are
// tolerated before the engine gives up respawning a partition.
type WorkerBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32
}

// DefaultWorkerBreakerConfig returns sensible defaults: trip after 5
// consecutive respawn failures within a 10s window, stay open for 30s.
func DefaultWorkerBreakerConfig(name string) WorkerBreakerConfig {
	return WorkerBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// WorkerBreaker wraps gobreaker with logging around a partition worker's
// respawn attempts.
type WorkerBreaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewWorkerBreaker creates a WorkerBreaker from cfg. ctx is the run-scoped
// context used to correlate state-change log lines with the rest of the
// run's logging; onTrip is invoked (outside the breaker's own lock)
// whenever the breaker transitions to open.
func NewWorkerBreaker(ctx context.Context, cfg WorkerBreakerConfig, onTrip func(name string)) *WorkerBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			observability.LogEvent(ctx, "warn", "worker_breaker_state_change", map[string]any{
				"partition": name,
				"from":      from.String(),
				"to":        to.String(),
			})
			if to == gobreaker.StateOpen && onTrip != nil {
				onTrip(name)
			}
		},
	}
	return &WorkerBreaker{cb: gobreaker.NewCircuitBreaker[any](settings), name: cfg.Name}
}

// Allow runs fn through the breaker, recording its outcome against the
// breaker's failure accounting. It returns fn's own error (wrapped) when
// fn fails, or the breaker's error when the breaker is open and fn is not
// run; use Open to tell whether respawns are suppressed.
func (b *WorkerBreaker) Allow(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err != nil {
		return fmt.Errorf("worker breaker %s: %w", b.name, err)
	}
	return nil
}

// Open reports whether the breaker is currently open (respawns suppressed).
func (b *WorkerBreaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
