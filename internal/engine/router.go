package engine

import (
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"marketpulse/internal/stats"
)

// router computes the partition for a symbol and performs the
// non-blocking, bounded enqueue described in spec §4.1. Beyond routing
// it only rejects updates that fail PriceUpdate.Validate; processing
// belongs to the partition workers.
type router struct {
	queues       []chan stats.PriceUpdate
	shuttingDown atomic.Bool
	enqueued     atomic.Int64 // total successful enqueues, sampled for throughput
}

func newRouter(partitions, channelCapacity int) *router {
	queues := make([]chan stats.PriceUpdate, partitions)
	for i := range queues {
		queues[i] = make(chan stats.PriceUpdate, channelCapacity)
	}
	return &router{queues: queues}
}

// partitionFor computes stable_hash(symbol) mod P using a deterministic,
// seedless hash so partition assignment is reproducible across runs of
// the same binary.
func (r *router) partitionFor(symbol string) int {
	h := xxhash.Sum64String(symbol)
	return int(h % uint64(len(r.queues)))
}

// enqueue validates u against now, then performs a non-blocking send to
// the owning partition's queue.
func (r *router) enqueue(u stats.PriceUpdate, now time.Time) error {
	if r.shuttingDown.Load() {
		return ErrShuttingDown
	}
	if err := u.Validate(now); err != nil {
		return wrapValidation(err)
	}

	p := r.partitionFor(u.Symbol)
	select {
	case r.queues[p] <- u:
		r.enqueued.Add(1)
		return nil
	default:
		return ErrBackpressure
	}
}

// queueDepth returns the sum of all partition queue lengths.
func (r *router) queueDepth() int {
	total := 0
	for _, q := range r.queues {
		total += len(q)
	}
	return total
}

// closeForShutdown marks the router as no longer accepting enqueues.
// The underlying channels are never closed: workers exit on context
// cancellation and drain whatever remains buffered via a non-blocking
// read, so there is no need to close a channel a sender might still
// (harmlessly) be racing to write to.
func (r *router) closeForShutdown() {
	r.shuttingDown.Store(true)
}

func wrapValidation(err error) error {
	return &validationError{err: err}
}

type validationError struct{ err error }

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() error { return ErrValidationFailure }
