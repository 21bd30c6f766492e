package shared

import "math"

// Round2 rounds a monetary or hour value to two decimal places. Amounts are
// rounded only at the point of storage or display, never between intermediate
// steps of a computation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
