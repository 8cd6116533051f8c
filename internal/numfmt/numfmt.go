// Package numfmt renders numbers the way Spirit's input files have always
// been written: integers in plain decimal and floats in their shortest
// round-trip form with an explicit ".0" on integral values.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// Float formats v as the shortest decimal that parses back to v.
// Exponent notation is used below 1e-4 and from 1e16 upwards.
func Float(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func Int(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Join formats each value with Float and joins them with sep.
func Join(vals []float64, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Float(v)
	}
	return strings.Join(parts, sep)
}
