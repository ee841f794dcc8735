package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a spreadsheet cell into a number.
// Blank cells, grouping commas and garbage never fail: anything that does not
// parse into a finite number becomes 0.
func Parse(raw string) float64 {
	if raw == "" {
		return 0
	}
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// IsNumeric reports whether raw is a non-blank cell holding a finite number
// as written, i.e. without stripping grouping commas. A whitespace-only cell
// counts as zero.
func IsNumeric(raw string) bool {
	if raw == "" {
		return false
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SafeDivide returns x/y, or 0 when y is 0.
func SafeDivide(x, y float64) float64 {
	if y == 0 {
		return 0
	}
	return x / y
}

// Round rounds half up to the nearest integer (2.5 -> 3, -2.5 -> -2).
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Round3 rounds x to three decimal places.
func Round3(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(3).InexactFloat64()
}
