package anomaly

import (
	"time"

	"github.com/shopspring/decimal"
)

// observation is a single (observed_at, price) pair retained by a
// SlidingTimeWindow.
type observation struct {
	observedAt time.Time
	price      decimal.Decimal
}

// SlidingTimeWindow is a FIFO queue of recent price observations bounded
// by a retention horizon rather than a fixed count. Entries are stored in
// a slice with a head offset; EvictOlderThan trims the head in amortised
// O(1) per evicted entry, compacting the backing array only once the
// evicted prefix dominates it.
type SlidingTimeWindow struct {
	entries []observation
	head    int
}

// NewSlidingTimeWindow creates an empty window.
func NewSlidingTimeWindow() *SlidingTimeWindow {
	return &SlidingTimeWindow{}
}

// Push appends an observation to the tail.
func (w *SlidingTimeWindow) Push(ts time.Time, price decimal.Decimal) {
	w.entries = append(w.entries, observation{observedAt: ts, price: price})
}

// EvictOlderThan removes every entry whose observedAt is strictly before
// cutoff, in FIFO order.
func (w *SlidingTimeWindow) EvictOlderThan(cutoff time.Time) {
	for w.head < len(w.entries) && w.entries[w.head].observedAt.Before(cutoff) {
		w.head++
	}
	// Reclaim the evicted prefix once it's a sizeable fraction of the
	// backing array, so the slice doesn't grow unbounded under sustained
	// throughput.
	if w.head > 0 && w.head*2 >= len(w.entries) {
		remaining := len(w.entries) - w.head
		copy(w.entries, w.entries[w.head:])
		w.entries = w.entries[:remaining]
		w.head = 0
	}
}

// EarliestPrice returns the price of the oldest retained observation, and
// false if the window is empty.
func (w *SlidingTimeWindow) EarliestPrice() (decimal.Decimal, bool) {
	if w.head >= len(w.entries) {
		return decimal.Decimal{}, false
	}
	return w.entries[w.head].price, true
}

// Len returns the number of observations currently retained.
func (w *SlidingTimeWindow) Len() int {
	return len(w.entries) - w.head
}
