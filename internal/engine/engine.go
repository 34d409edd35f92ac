// Package engine implements the processing core described by the
// market data system: a partitioned, lock-minimising ingestion pipeline,
// per-symbol rolling statistics, a sliding-window anomaly detector, and
// the lifecycle that supervises it all.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/anomaly"
	"marketpulse/internal/clock"
	"marketpulse/internal/config"
	"marketpulse/internal/observability"
	"marketpulse/internal/resilience"
	"marketpulse/internal/stats"
)

// State is the engine's lifecycle state (spec §4.7).
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// drainDeadline bounds how long Stop waits for workers to finish
// draining their queues (spec §4.7: >= 5s). Once it passes, Stop returns
// without waiting further; a worker that is still draining is not
// stopped and keeps processing what is left in its queue.
const drainDeadline = 5 * time.Second

// ProcessingStatistics is the engine-wide snapshot exposed to queriers
// (spec §3).
type ProcessingStatistics struct {
	TotalProcessed      uint64
	AnomaliesDetected   uint64
	ActiveSymbols       int
	QueueSize           int
	ThroughputPerSecond float64
}

// Engine owns the stats store, anomaly store, and all partition queues
// for the duration of a run.
type Engine struct {
	cfg     config.Config
	clk     clock.Clock
	metrics *observability.EngineMetrics

	store     *stats.Store
	anomalies *anomaly.Store
	router    *router
	workers   []*partitionWorker
	breakers  []*resilience.WorkerBreaker

	state          atomic.Int32
	unhealthy      atomic.Bool
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	lastThroughput atomic.Int64 // last sampled updates per second, for lock-free reads

	startStopMu sync.Mutex
}

// New constructs an Engine from cfg. The engine is created but not
// started; call Start to spawn workers.
func New(cfg config.Config, clk clock.Clock, metrics *observability.EngineMetrics) *Engine {
	if clk == nil {
		clk = clock.System{}
	}
	if metrics == nil {
		metrics = observability.NewEngineMetrics(observability.NewRegistry())
	}

	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = max(1, runtime.NumCPU())
	}

	e := &Engine{
		cfg:       cfg,
		clk:       clk,
		metrics:   metrics,
		store:     stats.NewStore(cfg.MovingAverageWindow),
		anomalies: anomaly.NewStore(cfg.RecentAnomaliesCapacity),
		router:    newRouter(partitions, cfg.ChannelCapacity),
	}
	e.state.Store(int32(StateCreated))
	return e
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Start allocates partition worker queues, spawns the workers, and
// starts the throughput-sampling ticker. Idempotent: calling Start again
// while Running is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.startStopMu.Lock()
	defer e.startStopMu.Unlock()

	if State(e.state.Load()) == StateRunning {
		return nil
	}
	e.state.Store(int32(StateStarting))

	// Derive the run context from the caller's ctx, not a bare
	// Background: this is what lets the RunInfo the caller attached
	// (cmd/marketpulse-engine/main.go's run id) reach every worker,
	// breaker, and log line for the lifetime of this run.
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	threshold := decimal.NewFromFloat(e.cfg.AnomalyThresholdPercent)
	retention := time.Duration(e.cfg.SlidingWindowMs) * time.Millisecond

	partitions := len(e.router.queues)
	e.workers = make([]*partitionWorker, partitions)
	e.breakers = make([]*resilience.WorkerBreaker, partitions)

	for i := 0; i < partitions; i++ {
		w := newPartitionWorker(i, e.router.queues[i], e.store, e.anomalies, e.metrics, e.clk, threshold, retention)
		e.workers[i] = w

		idx := i
		breaker := resilience.NewWorkerBreaker(
			runCtx,
			resilience.DefaultWorkerBreakerConfig(fmt.Sprintf("partition-%d", idx)),
			func(name string) { e.markUnhealthy() },
		)
		e.breakers[i] = breaker

		e.wg.Add(1)
		go e.superviseWorker(runCtx, idx, w, breaker)
	}

	e.startThroughputTicker(runCtx)

	e.state.Store(int32(StateRunning))
	return nil
}

// superviseWorker runs w to completion, respawning it through a circuit
// breaker if it returns an unexpected error (spec §7: Internal faults
// are contained and the worker respawned; repeated failures mark the
// engine Unhealthy).
func (e *Engine) superviseWorker(ctx context.Context, idx int, w *partitionWorker, breaker *resilience.WorkerBreaker) {
	defer e.wg.Done()

	for {
		err := w.run(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		// Record the fault against the breaker. Allow returns the fault
		// itself while the breaker is closed, so only the breaker's state
		// decides whether the worker is respawned.
		workerErr := err
		_ = breaker.Allow(func() error { return workerErr })
		respawn := !breaker.Open()
		observability.LogWorkerFault(ctx, idx, err, respawn)
		if !respawn {
			// Breaker is open: too many failures in the window. The
			// engine is marked unhealthy and this worker is not
			// respawned.
			return
		}
		e.metrics.WorkerRestarts.Inc()
	}
}

func (e *Engine) markUnhealthy() {
	e.unhealthy.Store(true)
}

// startThroughputTicker samples the router's enqueue counter once per
// second to maintain ThroughputPerSecond.
func (e *Engine) startThroughputTicker(ctx context.Context) {
	ticker := e.clk.NewTicker(time.Second)
	var last int64

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				current := e.router.enqueued.Load()
				delta := current - last
				last = current
				e.metrics.ThroughputPerSec.Set(float64(delta))
				e.storeThroughput(float64(delta))
				e.metrics.QueueSize.Set(float64(e.router.queueDepth()))
				e.metrics.ActiveSymbols.Set(float64(e.store.SymbolCount()))
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (e *Engine) storeThroughput(v float64) {
	e.lastThroughput.Store(int64(v))
}

func (e *Engine) loadThroughput() float64 {
	return float64(e.lastThroughput.Load())
}

// EnqueueUpdate validates and routes u to its owning partition. See
// spec §4.1 and §6 for the result contract.
func (e *Engine) EnqueueUpdate(u stats.PriceUpdate) error {
	if State(e.state.Load()) != StateRunning {
		if State(e.state.Load()) == StateStopping || State(e.state.Load()) == StateStopped {
			return ErrShuttingDown
		}
		return ErrNotStarted
	}
	return e.router.enqueue(u, e.clk.Now())
}

// Stop signals cancellation, waits (bounded by drainDeadline) for every
// worker to finish draining its queue, and returns. After Stop returns,
// further enqueues fail with ErrShuttingDown.
func (e *Engine) Stop(ctx context.Context) error {
	e.startStopMu.Lock()
	defer e.startStopMu.Unlock()

	if State(e.state.Load()) == StateStopped || State(e.state.Load()) == StateCreated {
		e.state.Store(int32(StateStopped))
		return nil
	}

	e.state.Store(int32(StateStopping))
	e.router.closeForShutdown()
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainDeadline):
	case <-ctx.Done():
	}

	e.state.Store(int32(StateStopped))
	return nil
}

// GetStatistics composes a ProcessingStatistics snapshot. It never
// blocks on worker progress.
func (e *Engine) GetStatistics() ProcessingStatistics {
	return ProcessingStatistics{
		TotalProcessed:      uint64(e.metrics.TotalProcessed.Value()),
		AnomaliesDetected:   uint64(e.metrics.AnomaliesDetected.Value()),
		ActiveSymbols:       e.store.SymbolCount(),
		QueueSize:           e.router.queueDepth(),
		ThroughputPerSecond: e.loadThroughput(),
	}
}

// GetSymbolStatistics returns the current statistics for symbol.
func (e *Engine) GetSymbolStatistics(symbol string) (stats.SymbolStatisticsView, bool) {
	return e.store.Snapshot(symbol)
}

// GetAllStatistics returns a statistics view for every observed symbol.
func (e *Engine) GetAllStatistics() []stats.SymbolStatisticsView {
	return e.store.SnapshotAll()
}

// GetRecentAnomalies returns up to take anomalies, newest first,
// optionally filtered by symbol.
func (e *Engine) GetRecentAnomalies(take int, symbol string) []anomaly.PriceAnomaly {
	return e.anomalies.GetRecent(take, symbol)
}

// CountAnomalies returns the anomaly count per the semantics documented
// on anomaly.Store.Count.
func (e *Engine) CountAnomalies(symbol string) uint64 {
	return e.anomalies.Count(symbol)
}

// Healthy reports the engine's health classification (spec §6):
// degraded when queue depth exceeds 10,000, unhealthy if any worker
// terminated unexpectedly beyond its breaker's tolerance, else healthy.
func (e *Engine) Healthy() (status string) {
	if e.unhealthy.Load() {
		return "unhealthy"
	}
	if e.router.queueDepth() > 10_000 {
		return "degraded"
	}
	return "healthy"
}
