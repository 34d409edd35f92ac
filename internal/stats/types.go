// Package stats implements the per-symbol rolling statistics store: the
// moving-average window, the authoritative StatisticsStore, and the
// PriceUpdate validation rules from spec §3.
package stats

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var symbolPattern = regexp.MustCompile(`^[A-Z]{1,10}$`)

// maxAllowedPrice is the exclusive upper bound on a valid price (spec §3).
var maxAllowedPrice = decimal.NewFromInt(1_000_000)

// maxClockSkew is how far into the future a PriceUpdate's timestamp may sit
// before it is rejected as invalid.
const maxClockSkew = 5 * time.Minute

// PriceUpdate is an immutable observation of a symbol's price at a point
// in time.
type PriceUpdate struct {
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}

// Validate checks u against the constraints in spec §3, measuring clock
// skew against now.
func (u PriceUpdate) Validate(now time.Time) error {
	if !symbolPattern.MatchString(u.Symbol) {
		return fmt.Errorf("symbol %q must be 1-10 uppercase A-Z characters", u.Symbol)
	}
	if !u.Price.IsPositive() {
		return fmt.Errorf("price %s must be positive", u.Price.String())
	}
	if !u.Price.LessThan(maxAllowedPrice) {
		return fmt.Errorf("price %s must be less than %s", u.Price.String(), maxAllowedPrice.String())
	}
	if u.Timestamp.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("timestamp %s is more than %s ahead of now", u.Timestamp, maxClockSkew)
	}
	return nil
}

// SymbolStatisticsView is a point-in-time, immutable snapshot of a symbol's
// aggregate statistics, safe to hand to query callers.
type SymbolStatisticsView struct {
	Symbol         string
	CurrentPrice   decimal.Decimal
	MovingAverage  decimal.Decimal
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	UpdateCount    uint64
	LastUpdateTime time.Time
}
