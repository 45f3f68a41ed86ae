package align

import (
	"fmt"
	"time"

	"MarketTiming/internal/domain/models"
)

// Options tunes alignment.
type Options struct {
	// DropWarmup removes leading rows until every forward-filled column
	// carries a value.
	DropWarmup bool
}

// Align joins every described series onto the calendar of the base series.
//
// Rows are exactly the base series dates. Date-granularity series join on the
// calendar date; month-granularity series are keyed by calendar month and
// broadcast to every row of that month, the latest observation in a month
// winning. Gaps are then filled per descriptor. A secondary series that is
// nil or empty becomes a constant column of its default, flagged synthetic,
// and is reported with state defaulted. A missing base series is fatal.
func Align(descriptors []models.SeriesDescriptor, series map[string]*models.Series, opts Options) (*models.Table, []models.SeriesStatus, error) {
	base, ok := baseDescriptor(descriptors)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no series declared as base", models.ErrBaseSeriesMissing)
	}
	bs := series[base.Name]
	if bs.Empty() {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrBaseSeriesMissing, base.Name)
	}

	dates := make([]time.Time, bs.Len())
	values := make([]float64, bs.Len())
	for i, p := range bs.Points {
		dates[i] = models.DayKey(p.Date)
		values[i] = p.Value
	}

	table := models.NewTable(models.FrequencyDaily, dates).WithColumn(base.Name, values, false)
	statuses := []models.SeriesStatus{loadedStatus(base, bs)}

	for _, d := range descriptors {
		if d.Base {
			continue
		}
		s := series[d.Name]
		if s.Empty() {
			table = table.WithColumn(d.Name, constant(len(dates), d.Default), true)
			statuses = append(statuses, models.SeriesStatus{
				Name:    d.Name,
				Source:  d.Source,
				State:   models.SeriesDefaulted,
				Message: fmt.Sprintf("series unavailable, using default %g", d.Default),
			})
			continue
		}
		table = table.WithColumn(d.Name, join(dates, s.Points, d), false)
		statuses = append(statuses, loadedStatus(d, s))
	}

	if opts.DropWarmup {
		table = dropWarmup(table, descriptors)
	}
	return table, statuses, nil
}

func baseDescriptor(descriptors []models.SeriesDescriptor) (models.SeriesDescriptor, bool) {
	for _, d := range descriptors {
		if d.Base {
			return d, true
		}
	}
	return models.SeriesDescriptor{}, false
}

// join walks the base dates and the observations together. For each row it
// tracks the most recent observation whose key is not after the row's key.
func join(dates []time.Time, points []models.Observation, d models.SeriesDescriptor) []float64 {
	key := models.DayKey
	if d.Granularity == models.GranularityMonth {
		key = models.MonthKey
	}

	out := make([]float64, len(dates))
	j := 0
	last := models.Missing
	var lastKey time.Time
	seen := false
	for i, date := range dates {
		rk := key(date)
		for j < len(points) && !key(points[j].Date).After(rk) {
			last = points[j].Value
			lastKey = key(points[j].Date)
			seen = true
			j++
		}
		exact := seen && lastKey.Equal(rk)

		switch d.Fill {
		case models.FillConstant:
			if exact {
				out[i] = last
			} else {
				out[i] = d.Default
			}
		case models.FillForwardConstant:
			if seen {
				out[i] = last
			} else {
				out[i] = d.Default
			}
		default:
			if seen {
				out[i] = last
			} else {
				out[i] = models.Missing
			}
		}
	}
	return out
}

func dropWarmup(t *models.Table, descriptors []models.SeriesDescriptor) *models.Table {
	var cols [][]float64
	for _, d := range descriptors {
		if d.Fill != models.FillForward || t.Synthetic(d.Name) {
			continue
		}
		if c, ok := t.Column(d.Name); ok {
			cols = append(cols, c)
		}
	}

	first := -1
	for i := 0; i < t.Len() && first < 0; i++ {
		complete := true
		for _, c := range cols {
			if models.IsMissing(c[i]) {
				complete = false
				break
			}
		}
		if complete {
			first = i
		}
	}
	if first <= 0 {
		return t
	}
	return t.Filter(func(i int) bool { return i >= first })
}

func loadedStatus(d models.SeriesDescriptor, s *models.Series) models.SeriesStatus {
	first := s.Points[0].Date
	last := s.Points[len(s.Points)-1].Date
	return models.SeriesStatus{
		Name:   d.Name,
		Source: d.Source,
		State:  models.SeriesLoaded,
		Rows:   s.Len(),
		First:  &first,
		Last:   &last,
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
