package util

import (
	"fmt"
	"math"
)

// FormatValueFactor renders a value with an SI factor prefix, e.g. 0.0015 V -> "1.500 mV".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1 || absValue == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatDuration renders a simulated time span for progress reporting.
func FormatDuration(seconds float64) string {
	if seconds >= 60 {
		return fmt.Sprintf("%.2f min", seconds/60)
	}
	return FormatValueFactor(seconds, "s")
}
