package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPriceUpdateValidate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		update  PriceUpdate
		wantErr bool
	}{
		{"valid", PriceUpdate{Symbol: "AAPL", Price: dec("150.25"), Timestamp: now}, false},
		{"lowercase symbol", PriceUpdate{Symbol: "aapl", Price: dec("150.25"), Timestamp: now}, true},
		{"empty symbol", PriceUpdate{Symbol: "", Price: dec("150.25"), Timestamp: now}, true},
		{"symbol too long", PriceUpdate{Symbol: "TOOLONGSYMBOL", Price: dec("150.25"), Timestamp: now}, true},
		{"zero price", PriceUpdate{Symbol: "AAPL", Price: decimal.Zero, Timestamp: now}, true},
		{"negative price", PriceUpdate{Symbol: "AAPL", Price: dec("-1"), Timestamp: now}, true},
		{"price at ceiling", PriceUpdate{Symbol: "AAPL", Price: dec("1000000"), Timestamp: now}, true},
		{"price just under ceiling", PriceUpdate{Symbol: "AAPL", Price: dec("999999.99"), Timestamp: now}, false},
		{"far future timestamp", PriceUpdate{Symbol: "AAPL", Price: dec("1"), Timestamp: now.Add(time.Hour)}, true},
		{"slight future within skew", PriceUpdate{Symbol: "AAPL", Price: dec("1"), Timestamp: now.Add(time.Minute)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.update.Validate(now)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}
