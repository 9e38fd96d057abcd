// Package units formats raster values and areas for display. Absent values
// (NaN) always render as Missing rather than a guessed number.
package units

import (
	"math"
	"strconv"
	"strings"
)

// Missing is shown in place of any absent statistic.
const Missing = "—"

// Area unit constants
const (
	SquareMetres     = "m²"
	SquareKilometres = "km²"
)

const squareMetresPerKm2 = 1e6

// Label formats a value using the viewer's label rule:
// |x| >= 1000 or 0 < |x| < 0.01 use 3 significant digits,
// |x| >= 100 no decimals, |x| >= 10 one decimal, otherwise two.
func Label(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Missing
	}
	ax := math.Abs(x)
	switch {
	case ax >= 1000 || (ax > 0 && ax < 0.01):
		return strconv.FormatFloat(x, 'g', 3, 64)
	case ax >= 100:
		return strconv.FormatFloat(x, 'f', 0, 64)
	case ax >= 10:
		return strconv.FormatFloat(x, 'f', 1, 64)
	default:
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
}

// Value formats a statistic with an optional unit suffix.
func Value(x float64, unit string) string {
	s := Label(x)
	if s == Missing || strings.TrimSpace(unit) == "" {
		return s
	}
	return s + " " + strings.TrimSpace(unit)
}

// Count formats a pixel or pair count. Negative counts are treated as absent.
func Count(n int64) string {
	if n < 0 {
		return Missing
	}
	return strconv.FormatInt(n, 10)
}

// Area formats an area given in square metres, switching to km² at 1 km².
func Area(m2 float64) string {
	if math.IsNaN(m2) || math.IsInf(m2, 0) || m2 < 0 {
		return Missing
	}
	if m2 >= squareMetresPerKm2 {
		return Label(m2/squareMetresPerKm2) + " " + SquareKilometres
	}
	return Label(m2) + " " + SquareMetres
}

// Percent formats a ratio in [0,1] as a percentage with one decimal.
func Percent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Missing
	}
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}
