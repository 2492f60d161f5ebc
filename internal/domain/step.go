package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FloorToStep returns the largest multiple of step that is not greater than value.
// A non-positive step leaves value untouched.
func FloorToStep(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value
	}
	// Mod is exact; Div would round the quotient to DivisionPrecision first.
	rem := value.Mod(step)
	floored := value.Sub(rem)
	if rem.IsNegative() {
		floored = floored.Sub(step)
	}
	return floored
}

// StepPrecision is the number of decimal places a step carries ("0.001" -> 3, "1" -> 0).
func StepPrecision(step decimal.Decimal) int32 {
	if !step.IsPositive() {
		return 0
	}
	// String() drops trailing zeros, so "0.00100000" reads as "0.001".
	s := step.String()
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return int32(len(s) - idx - 1)
	}
	return 0
}

// FormatToStep prints value with exactly the precision of step.
func FormatToStep(value, step decimal.Decimal) string {
	return value.StringFixed(StepPrecision(step))
}
