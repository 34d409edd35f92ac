package stats

import "github.com/shopspring/decimal"

// MovingWindow is a fixed-capacity ring buffer of prices used to compute a
// bounded moving average. It maintains a running sum so Mean is O(1); the
// sum itself is never rounded, only the value returned by Mean.
type MovingWindow struct {
	capacity int
	values   []decimal.Decimal
	next     int // index the next Push will write to
	count    int // number of valid entries, capped at capacity
	sum      decimal.Decimal
}

// NewMovingWindow creates a window retaining at most capacity prices.
func NewMovingWindow(capacity int) *MovingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &MovingWindow{
		capacity: capacity,
		values:   make([]decimal.Decimal, capacity),
		sum:      decimal.Zero,
	}
}

// Push appends x, evicting and returning the oldest value if the window was
// already full.
func (w *MovingWindow) Push(x decimal.Decimal) (evicted decimal.Decimal, hadEviction bool) {
	if w.count == w.capacity {
		evicted = w.values[w.next]
		hadEviction = true
		w.sum = w.sum.Sub(evicted)
	} else {
		w.count++
	}
	w.values[w.next] = x
	w.sum = w.sum.Add(x)
	w.next = (w.next + 1) % w.capacity
	return evicted, hadEviction
}

// Mean returns the arithmetic mean of the values currently retained,
// rounded to 8 decimal places. Returns zero if the window is empty.
func (w *MovingWindow) Mean() decimal.Decimal {
	if w.count == 0 {
		return decimal.Zero
	}
	return w.sum.DivRound(decimal.NewFromInt(int64(w.count)), 8)
}

// Count returns the number of values currently retained (≤ capacity).
func (w *MovingWindow) Count() int { return w.count }
