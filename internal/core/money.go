package core

import (
	"fmt"
	"math"
)

// Round2 rounds an amount to two decimal places, half away from zero. Used
// only when amounts cross the serialization boundary; calculations keep the
// raw value.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders an amount for user-facing messages, e.g. "$12.50".
func FormatAmount(v float64) string {
	return fmt.Sprintf("$%.2f", math.Abs(v))
}
