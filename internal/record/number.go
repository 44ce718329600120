package record

import (
	"encoding/json"
	"math"
	"strconv"
)

// NumberOf reads a numeric document value. Canonical documents carry numbers
// as strings, but raw HTTP patches may still hold float64 or json.Number.
// Returns 0 for absent or non-numeric values.
func NumberOf(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}

// Round rounds to the given number of decimal places, half away from zero.
// Monetary amounts compare at two places.
func Round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
