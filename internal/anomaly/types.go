// Package anomaly implements the sliding-time-window price-change detector
// and the bounded history of detected anomalies.
package anomaly

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity classifies an anomaly by the magnitude of its change percent
// relative to the configured base threshold T.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ClassifySeverity buckets the absolute change percent against multiples
// of the base threshold (spec §4.2):
//
//	|Δ| < 2T       -> Low
//	2T <= |Δ| < 5T  -> Medium
//	5T <= |Δ| < 10T -> High
//	|Δ| >= 10T      -> Critical
func ClassifySeverity(absChangePercent, threshold decimal.Decimal) Severity {
	two := threshold.Mul(decimal.NewFromInt(2))
	five := threshold.Mul(decimal.NewFromInt(5))
	ten := threshold.Mul(decimal.NewFromInt(10))

	switch {
	case absChangePercent.LessThan(two):
		return SeverityLow
	case absChangePercent.LessThan(five):
		return SeverityMedium
	case absChangePercent.LessThan(ten):
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// PriceAnomaly records a single detected price-change event.
type PriceAnomaly struct {
	Symbol        string
	OldPrice      decimal.Decimal
	NewPrice      decimal.Decimal
	ChangePercent decimal.Decimal // signed
	Severity      Severity
	DetectedAt    time.Time
}
