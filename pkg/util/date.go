package util

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; ISO first, then the day-first forms used by
// NSE exports, then the month-first slash form used by Yahoo downloads.
// Slash dates are always read month-first here, so 05/04/2024 is May 4 and
// 13/04/2024 is rejected. Sources exporting day-first slash dates set an
// explicit layout (date_layout: 02/01/2006) and go through ParseDateIn.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006",
	"02 Jan 2006",
	"Jan 02, 2006",
	"02-01-2006",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses a calendar date from the layouts commonly found in market
// CSV exports. The result is truncated to midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dayKey(t), true
		}
	}
	// pandas writes timezone-aware timestamps as "2024-01-02 00:00:00+05:30"
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateIn parses s with layout only, falling back to ParseDate when
// layout is empty.
func ParseDateIn(s, layout string) (time.Time, bool) {
	if layout == "" {
		return ParseDate(s)
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return dayKey(t), true
}

// dayKey truncates t to its calendar date in UTC.
func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
