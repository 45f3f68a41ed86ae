package models

import "strings"

// RawTable is a CSV-shaped table as supplied by a series loader.
type RawTable struct {
	Key    string     `json:"key"`
	Origin string     `json:"origin"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ColumnIndex returns the position of a header column or -1. Header cells are
// compared with surrounding whitespace and a byte order mark removed.
func (t *RawTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
			return i
		}
	}
	return -1
}

// Cell returns row[i], or "" when the row is short or i is negative.
func Cell(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}
