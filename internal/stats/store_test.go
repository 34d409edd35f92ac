package stats

import (
	"testing"
	"time"
)

func TestStoreSnapshotUnknownSymbol(t *testing.T) {
	s := NewStore(4)
	if _, ok := s.Snapshot("AAPL"); ok {
		t.Fatalf("expected no snapshot for unobserved symbol")
	}
}

func TestStoreApplyTracksMinMaxAndCount(t *testing.T) {
	s := NewStore(4)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prices := []string{"100", "105", "95", "102"}
	for i, p := range prices {
		s.Apply(PriceUpdate{Symbol: "AAPL", Price: dec(p), Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	view, ok := s.Snapshot("AAPL")
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if !view.MinPrice.Equal(dec("95")) {
		t.Fatalf("expected min 95, got %s", view.MinPrice)
	}
	if !view.MaxPrice.Equal(dec("105")) {
		t.Fatalf("expected max 105, got %s", view.MaxPrice)
	}
	if !view.CurrentPrice.Equal(dec("102")) {
		t.Fatalf("expected current price 102, got %s", view.CurrentPrice)
	}
	if view.UpdateCount != 4 {
		t.Fatalf("expected update count 4, got %d", view.UpdateCount)
	}
	wantMean := dec("100.5") // (100+105+95+102)/4
	if !view.MovingAverage.Equal(wantMean) {
		t.Fatalf("expected moving average %s, got %s", wantMean, view.MovingAverage)
	}
}

func TestStoreSymbolCountAndSnapshotAll(t *testing.T) {
	s := NewStore(4)
	now := time.Now()

	s.Apply(PriceUpdate{Symbol: "AAPL", Price: dec("1"), Timestamp: now})
	s.Apply(PriceUpdate{Symbol: "MSFT", Price: dec("2"), Timestamp: now})
	s.Apply(PriceUpdate{Symbol: "AAPL", Price: dec("3"), Timestamp: now})

	if got := s.SymbolCount(); got != 2 {
		t.Fatalf("expected 2 distinct symbols, got %d", got)
	}
	all := s.SnapshotAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(all))
	}
}
