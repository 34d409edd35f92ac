package anomaly

import "sync"

// Store is a bounded-capacity ring buffer of detected anomalies, shared
// across all partition workers. Add is called concurrently from every
// worker; GetRecent and Count are called from arbitrary query callers.
type Store struct {
	mu       sync.RWMutex
	capacity int
	entries  []PriceAnomaly
	next     int // index the next Add writes to, once full
	full     bool
	total    uint64 // monotonic count of everything ever appended
}

// NewStore creates a Store retaining at most capacity anomalies.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		entries:  make([]PriceAnomaly, 0, capacity),
	}
}

// Add appends a.
func (s *Store) Add(a PriceAnomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if len(s.entries) < s.capacity {
		s.entries = append(s.entries, a)
		if len(s.entries) == s.capacity {
			s.full = true
		}
		return
	}
	s.entries[s.next] = a
	s.next = (s.next + 1) % s.capacity
}

// GetRecent returns up to take anomalies, newest first, optionally
// filtered to a single symbol. An empty symbolFilter means no filter.
func (s *Store) GetRecent(take int, symbolFilter string) []PriceAnomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if take <= 0 {
		return nil
	}

	n := len(s.entries)
	out := make([]PriceAnomaly, 0, min(take, n))
	// Walk backwards from the most recently written slot.
	start := s.next - 1
	if !s.full {
		start = n - 1
	}
	for i := 0; i < n && len(out) < take; i++ {
		idx := ((start-i)%n + n) % n
		a := s.entries[idx]
		if symbolFilter == "" || a.Symbol == symbolFilter {
			out = append(out, a)
		}
	}
	return out
}

// Count returns the total number of anomalies ever appended when
// symbolFilter is empty (a monotonic counter, independent of eviction),
// or the number currently retained matching symbolFilter otherwise.
func (s *Store) Count(symbolFilter string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if symbolFilter == "" {
		return s.total
	}
	var n uint64
	for _, a := range s.entries {
		if a.Symbol == symbolFilter {
			n++
		}
	}
	return n
}
