package util

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric cell, tolerating thousands separators, a
// trailing percent sign and surrounding quotes. Placeholders such as "-",
// "NA" and "null" and non-finite results are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	switch strings.ToLower(s) {
	case "", "-", "na", "n/a", "nan", "null", "none":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
