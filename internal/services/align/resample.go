package align

import (
	"time"

	"MarketTiming/internal/domain/models"
)

// Resample reduces a daily table to one row per calendar month, dated at the
// month end. Each column is reduced with its aggregator from aggs, AggLast
// when absent. Missing values are skipped; a month with no observed value
// stays missing. Synthetic flags carry over.
func Resample(t *models.Table, aggs map[string]models.Aggregator) *models.Table {
	dates := t.Dates()
	var months []time.Time
	var bounds [][2]int
	for i, d := range dates {
		m := models.MonthEnd(d)
		if n := len(months); n > 0 && months[n-1].Equal(m) {
			bounds[n-1][1] = i + 1
			continue
		}
		months = append(months, m)
		bounds = append(bounds, [2]int{i, i + 1})
	}

	out := models.NewTable(models.FrequencyMonthly, months)
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		agg := aggs[name]
		vals := make([]float64, len(months))
		for k, b := range bounds {
			vals[k] = reduce(col[b[0]:b[1]], agg)
		}
		out = out.WithColumn(name, vals, t.Synthetic(name))
	}
	return out
}

// Aggregators collects the monthly aggregator of every described series.
func Aggregators(descriptors []models.SeriesDescriptor) map[string]models.Aggregator {
	out := make(map[string]models.Aggregator, len(descriptors))
	for _, d := range descriptors {
		if d.MonthlyAgg != "" {
			out[d.Name] = d.MonthlyAgg
		}
	}
	return out
}

func reduce(xs []float64, agg models.Aggregator) float64 {
	res := models.Missing
	n := 0
	sum := 0.0
	for _, x := range xs {
		if models.IsMissing(x) {
			continue
		}
		switch agg {
		case models.AggMean:
			sum += x
		case models.AggMax:
			if n == 0 || x > res {
				res = x
			}
		case models.AggMin:
			if n == 0 || x < res {
				res = x
			}
		default:
			res = x
		}
		n++
	}
	if agg == models.AggMean && n > 0 {
		return sum / float64(n)
	}
	return res
}
