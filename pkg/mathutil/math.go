// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/finmodeler/statement-engine/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is
// effectively zero. Margin and ratio formulas rely on this never faulting.
func SafeDivide(numerator, denominator float64) float64 {
	if IsZero(denominator) {
		return 0
	}
	return numerator / denominator
}

// Pct converts a stored percentage (0-100) to a ratio.
func Pct(percent float64) float64 {
	return percent / constants.PercentDivisor
}

// Compound grows base by rate percent (0-100) over n periods.
func Compound(base, ratePercent float64, n int) float64 {
	return base * math.Pow(1+Pct(ratePercent), float64(n))
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.CurrencyTolerance
}

// IsNegative checks if a value is negative (less than negative tolerance)
func IsNegative(val float64) bool {
	return val < -constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}
