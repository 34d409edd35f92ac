package stats

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// entry holds the mutable aggregate state for a single symbol. Each entry
// is only ever touched by the single partition worker that owns the
// symbol, so the lock here guards readers (Snapshot/SnapshotAll callers
// from other goroutines, e.g. a query API) rather than writer contention.
type entry struct {
	mu             sync.RWMutex
	symbol         string
	currentPrice   decimal.Decimal
	minPrice       decimal.Decimal
	maxPrice       decimal.Decimal
	updateCount    uint64
	lastUpdateTime time.Time
	window         *MovingWindow
}

func (e *entry) snapshot() SymbolStatisticsView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return SymbolStatisticsView{
		Symbol:         e.symbol,
		CurrentPrice:   e.currentPrice,
		MovingAverage:  e.window.Mean(),
		MinPrice:       e.minPrice,
		MaxPrice:       e.maxPrice,
		UpdateCount:    e.updateCount,
		LastUpdateTime: e.lastUpdateTime,
	}
}

// apply folds a validated PriceUpdate into the entry's aggregates. Must
// only be called by the symbol's owning worker.
func (e *entry) apply(u PriceUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.updateCount == 0 {
		e.minPrice = u.Price
		e.maxPrice = u.Price
	} else {
		if u.Price.LessThan(e.minPrice) {
			e.minPrice = u.Price
		}
		if u.Price.GreaterThan(e.maxPrice) {
			e.maxPrice = u.Price
		}
	}
	e.currentPrice = u.Price
	e.lastUpdateTime = u.Timestamp
	e.updateCount++
	e.window.Push(u.Price)
}

// Store is the authoritative, concurrency-safe collection of per-symbol
// statistics entries. Entries are created lazily on first observation and
// never removed: the set of tracked symbols only grows for the life of
// the engine.
type Store struct {
	windowCapacity int

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates a Store whose per-symbol moving windows retain
// windowCapacity prices.
func NewStore(windowCapacity int) *Store {
	return &Store{
		windowCapacity: windowCapacity,
		entries:        make(map[string]*entry),
	}
}

// getOrCreate returns the entry for symbol, creating it if necessary.
func (s *Store) getOrCreate(symbol string) *entry {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[symbol]; ok {
		return e
	}
	e = &entry{
		symbol: symbol,
		window: NewMovingWindow(s.windowCapacity),
	}
	s.entries[symbol] = e
	return e
}

// Apply folds a validated PriceUpdate into the store, creating the
// symbol's entry on first observation.
func (s *Store) Apply(u PriceUpdate) {
	s.getOrCreate(u.Symbol).apply(u)
}

// Snapshot returns the current statistics for symbol, and false if the
// symbol has never been observed.
func (s *Store) Snapshot(symbol string) (SymbolStatisticsView, bool) {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return SymbolStatisticsView{}, false
	}
	return e.snapshot(), true
}

// SnapshotAll returns a statistics view for every symbol observed so far.
func (s *Store) SnapshotAll() []SymbolStatisticsView {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	views := make([]SymbolStatisticsView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.snapshot())
	}
	return views
}

// SymbolCount returns the number of distinct symbols observed so far.
func (s *Store) SymbolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
