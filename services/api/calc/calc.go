// Package calc holds the pure derived-metric functions for respirometry
// rows. Every function is stateless and guarded against physically invalid
// inputs: impossible readings yield 0 rather than an error, so a half-filled
// form never crashes a save.
package calc

import (
	"math"
	"strconv"
	"strings"
)

// KelvinOffset converts Celsius to Kelvin in the power formula.
const KelvinOffset = 273.15

// FlowRate derives the pump flow rate from a timed Falcon weight gain.
// Defined as 0 when minutes <= 0 or the full weight does not exceed the
// tare (divide-by-zero and negative-gain guards).
func FlowRate(full, tare, minutes float64) float64 {
	if minutes <= 0 || full <= tare {
		return 0
	}
	return (full - tare) / minutes
}

// Delta is the absolute difference between the two SMR readings.
func Delta(smr1, smr2 float64) float64 {
	return math.Abs(smr1 - smr2)
}

// Power derives the metabolic power output. Defined as 0 when the flow rate
// is not positive, regardless of the other operands.
func Power(delta, flowRate, pressure, temperature float64) float64 {
	if flowRate <= 0 {
		return 0
	}
	return delta * flowRate * pressure / (temperature + KelvinOffset)
}

// FloatOrZero is the single best-effort numeric coercion used across the
// record paths: missing or non-numeric raw input becomes 0 before any
// computation. Callers needing strict validation must use ParseFloat.
func FloatOrZero(raw string) float64 {
	v, err := ParseFloat(raw)
	if err != nil {
		return 0
	}
	return v
}

// ParseFloat parses a raw cell as a float, trimming whitespace and
// accepting a comma decimal separator (values typed on Italian keyboards
// show up both ways in legacy rows).
func ParseFloat(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders a float the way the store expects cells: shortest
// representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
