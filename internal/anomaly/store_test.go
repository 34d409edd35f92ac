package anomaly

import (
	"testing"
	"time"
)

func newAnomaly(symbol string, n int) PriceAnomaly {
	return PriceAnomaly{
		Symbol:        symbol,
		OldPrice:      dec("100"),
		NewPrice:      dec("103"),
		ChangePercent: dec("3"),
		Severity:      SeverityLow,
		DetectedAt:    time.Now().Add(time.Duration(n) * time.Millisecond),
	}
}

func TestStoreGetRecentNewestFirst(t *testing.T) {
	s := NewStore(10)
	s.Add(newAnomaly("AAPL", 0))
	s.Add(newAnomaly("MSFT", 1))
	s.Add(newAnomaly("AAPL", 2))

	recent := s.GetRecent(10, "")
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent anomalies, got %d", len(recent))
	}
	if recent[0].Symbol != "AAPL" {
		t.Fatalf("expected most recently added anomaly first, got %s", recent[0].Symbol)
	}
}

func TestStoreEvictsOldestWhenFull(t *testing.T) {
	s := NewStore(2)
	s.Add(newAnomaly("A", 0))
	s.Add(newAnomaly("B", 1))
	s.Add(newAnomaly("C", 2))

	recent := s.GetRecent(10, "")
	if len(recent) != 2 {
		t.Fatalf("expected capacity-bounded 2 entries, got %d", len(recent))
	}
	for _, a := range recent {
		if a.Symbol == "A" {
			t.Fatalf("expected oldest entry A to have been evicted")
		}
	}
}

func TestStoreCountTotalVsFiltered(t *testing.T) {
	s := NewStore(2)
	s.Add(newAnomaly("A", 0))
	s.Add(newAnomaly("A", 1))
	s.Add(newAnomaly("B", 2)) // evicts first "A"

	if got := s.Count(""); got != 3 {
		t.Fatalf("expected monotonic total count 3, got %d", got)
	}
	if got := s.Count("A"); got != 1 {
		t.Fatalf("expected 1 currently-retained A anomaly, got %d", got)
	}
}

func TestStoreGetRecentFilterBySymbol(t *testing.T) {
	s := NewStore(10)
	s.Add(newAnomaly("AAPL", 0))
	s.Add(newAnomaly("MSFT", 1))
	s.Add(newAnomaly("AAPL", 2))

	recent := s.GetRecent(10, "MSFT")
	if len(recent) != 1 {
		t.Fatalf("expected 1 MSFT anomaly, got %d", len(recent))
	}
	if recent[0].Symbol != "MSFT" {
		t.Fatalf("expected filtered symbol MSFT, got %s", recent[0].Symbol)
	}
}
