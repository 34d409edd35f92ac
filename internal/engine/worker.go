package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/anomaly"
	"marketpulse/internal/clock"
	"marketpulse/internal/observability"
	"marketpulse/internal/stats"
)

// partitionWorker owns one partition's queue and the subset of symbols
// hashed to it. It is the only writer of the stats entries and sliding
// windows for those symbols (spec §4.2).
type partitionWorker struct {
	index     int
	queue     <-chan stats.PriceUpdate
	store     *stats.Store
	anomalies *anomaly.Store
	metrics   *observability.EngineMetrics
	clk       clock.Clock

	threshold       decimal.Decimal
	windowRetention time.Duration

	windows map[string]*anomaly.SlidingTimeWindow
}

func newPartitionWorker(
	index int,
	queue <-chan stats.PriceUpdate,
	store *stats.Store,
	anomalies *anomaly.Store,
	metrics *observability.EngineMetrics,
	clk clock.Clock,
	threshold decimal.Decimal,
	windowRetention time.Duration,
) *partitionWorker {
	return &partitionWorker{
		index:           index,
		queue:           queue,
		store:           store,
		anomalies:       anomalies,
		metrics:         metrics,
		clk:             clk,
		threshold:       threshold,
		windowRetention: windowRetention,
		windows:         make(map[string]*anomaly.SlidingTimeWindow),
	}
}

// run is the worker's main loop. On cancellation it drains whatever is
// already buffered in the queue, then returns. The engine bounds how
// long it waits for that drain to finish with its own deadline; run
// itself never blocks waiting for more input once ctx is done.
func (w *partitionWorker) run(ctx context.Context) (err error) {
	// processUpdate already recovers per-update panics; this is a
	// backstop so a fault anywhere else in the loop surfaces as a
	// respawnable error instead of silently killing the goroutine.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("partition %d: run loop panic: %v", w.index, r)
		}
	}()

	for {
		select {
		case u, ok := <-w.queue:
			if !ok {
				return nil
			}
			w.processUpdate(ctx, u)
		case <-ctx.Done():
			return w.drain(ctx)
		}
	}
}

// drain processes whatever remains buffered in the queue without
// blocking, for callers that have already observed cancellation.
func (w *partitionWorker) drain(ctx context.Context) error {
	for {
		select {
		case u, ok := <-w.queue:
			if !ok {
				return nil
			}
			w.processUpdate(ctx, u)
		default:
			return nil
		}
	}
}

// processUpdate implements the per-update procedure of spec §4.2. Faults
// here are recovered so a single malformed or panicking update never
// poisons the partition. ctx carries the run's correlation id and is
// tagged with the update's symbol for every log line this call emits.
func (w *partitionWorker) processUpdate(ctx context.Context, u stats.PriceUpdate) (err error) {
	ctx = observability.WithSymbol(ctx, u.Symbol)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("partition %d: panic processing %s: %v", w.index, u.Symbol, r)
			observability.LogWorkerFault(ctx, w.index, err, false)
		}
	}()

	_, hadPrior := w.store.Snapshot(u.Symbol)

	w.store.Apply(u)
	w.metrics.TotalProcessed.Inc()

	sw, ok := w.windows[u.Symbol]
	if !ok {
		sw = anomaly.NewSlidingTimeWindow()
		w.windows[u.Symbol] = sw
	}
	sw.Push(u.Timestamp, u.Price)

	now := w.clk.Now()
	sw.EvictOlderThan(now.Add(-w.windowRetention))

	if !hadPrior {
		return nil
	}
	if sw.Len() <= 1 {
		return nil
	}

	ref, ok := sw.EarliestPrice()
	if !ok || ref.IsZero() {
		return nil
	}

	changePercent := u.Price.Sub(ref).Div(ref).Mul(decimal.NewFromInt(100))
	absChange := changePercent.Abs()
	if absChange.LessThan(w.threshold) {
		return nil
	}

	sev := anomaly.ClassifySeverity(absChange, w.threshold)
	w.anomalies.Add(anomaly.PriceAnomaly{
		Symbol:        u.Symbol,
		OldPrice:      ref,
		NewPrice:      u.Price,
		ChangePercent: changePercent,
		Severity:      sev,
		DetectedAt:    now,
	})
	w.metrics.AnomaliesDetected.Inc()
	observability.LogAnomaly(ctx, u.Symbol, string(sev), changePercent.String())

	return nil
}
