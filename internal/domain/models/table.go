package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Table is a date-indexed set of float columns sharing one calendar.
// A Table is immutable once built; derivations return a new Table that may
// share column slices with its parent, so callers must not write into slices
// obtained from Column.
type Table struct {
	freq      Frequency
	dates     []time.Time
	order     []string
	cols      map[string][]float64
	synthetic map[string]bool
}

// NewTable creates an empty table over the given dates.
func NewTable(freq Frequency, dates []time.Time) *Table {
	return &Table{
		freq:      freq,
		dates:     dates,
		cols:      make(map[string][]float64),
		synthetic: make(map[string]bool),
	}
}

// Frequency returns the row cadence of the table.
func (t *Table) Frequency() Frequency { return t.freq }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.dates)
}

// Dates returns the row dates. Read-only.
func (t *Table) Dates() []time.Time { return t.dates }

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the values of a column. Read-only.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.cols[name]
	return v, ok
}

// Synthetic reports whether a column was materialized from a declared default
// rather than observed data.
func (t *Table) Synthetic(name string) bool { return t.synthetic[name] }

// WithColumn returns a copy of t with the column added or replaced.
// It panics if len(values) differs from the row count.
func (t *Table) WithColumn(name string, values []float64, synthetic bool) *Table {
	if len(values) != len(t.dates) {
		panic(fmt.Sprintf("table: column %q has %d values for %d rows", name, len(values), len(t.dates)))
	}
	next := t.clone()
	if _, exists := next.cols[name]; !exists {
		next.order = append(next.order, name)
	}
	next.cols[name] = values
	if synthetic {
		next.synthetic[name] = true
	} else {
		delete(next.synthetic, name)
	}
	return next
}

// Filter returns a table holding only the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	idx := make([]int, 0, len(t.dates))
	for i := range t.dates {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	dates := make([]time.Time, len(idx))
	for j, i := range idx {
		dates[j] = t.dates[i]
	}
	out := NewTable(t.freq, dates)
	for _, name := range t.order {
		src := t.cols[name]
		vals := make([]float64, len(idx))
		for j, i := range idx {
			vals[j] = src[i]
		}
		out.order = append(out.order, name)
		out.cols[name] = vals
		if t.synthetic[name] {
			out.synthetic[name] = true
		}
	}
	return out
}

// Tail returns the last n rows (all rows when n <= 0 or n >= Len).
func (t *Table) Tail(n int) *Table {
	if n <= 0 || n >= t.Len() {
		return t
	}
	start := t.Len() - n
	return t.Filter(func(i int) bool { return i >= start })
}

// Row returns row i as a value map.
func (t *Table) Row(i int) Row {
	r := Row{
		Date:      t.dates[i],
		Values:    make(map[string]float64, len(t.order)),
		Synthetic: make(map[string]bool, len(t.synthetic)),
	}
	for _, name := range t.order {
		r.Values[name] = t.cols[name][i]
		if t.synthetic[name] {
			r.Synthetic[name] = true
		}
	}
	return r
}

// Latest returns the last row.
func (t *Table) Latest() (Row, bool) {
	if t.Len() == 0 {
		return Row{}, false
	}
	return t.Row(t.Len() - 1), true
}

// Records renders the last limit rows for transport, missing values as null.
func (t *Table) Records(limit int) []Record {
	view := t.Tail(limit)
	out := make([]Record, view.Len())
	for i := range out {
		vals := make(map[string]Float, len(view.order))
		for _, name := range view.order {
			vals[name] = Float(view.cols[name][i])
		}
		out[i] = Record{Date: view.dates[i], Values: vals}
	}
	return out
}

func (t *Table) clone() *Table {
	next := &Table{
		freq:      t.freq,
		dates:     t.dates,
		order:     make([]string, len(t.order), len(t.order)+1),
		cols:      make(map[string][]float64, len(t.cols)+1),
		synthetic: make(map[string]bool, len(t.synthetic)),
	}
	copy(next.order, t.order)
	for k, v := range t.cols {
		next.cols[k] = v
	}
	for k, v := range t.synthetic {
		next.synthetic[k] = v
	}
	return next
}

// Row is one table row keyed by column name.
type Row struct {
	Date      time.Time
	Values    map[string]float64
	Synthetic map[string]bool
}

// Get returns the column value or Missing when the column is unknown.
func (r Row) Get(name string) float64 {
	v, ok := r.Values[name]
	if !ok {
		return Missing
	}
	return v
}

// Record is the transport form of a row.
type Record struct {
	Date   time.Time        `json:"date"`
	Values map[string]Float `json:"values"`
}

// Float is a float64 that encodes missing (NaN) and infinite values as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(Missing)
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("float: %w", err)
	}
	*f = Float(v)
	return nil
}
