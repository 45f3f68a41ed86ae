package series

import (
	"fmt"
	"sort"
	"strings"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/util"
)

// Transform names accepted by SeriesDescriptor.Transform.
const TransformBondPriceToYield = "bond_price_to_yield"

// BondYield approximates a benchmark yield from a bond price quoted around par:
// yield = Anchor + (100 - price) * Slope.
type BondYield struct {
	Anchor float64
	Slope  float64
}

// Yield converts a price to an approximate yield in percent.
func (b BondYield) Yield(price float64) float64 {
	return b.Anchor + (100-price)*b.Slope
}

// Stats counts what extraction kept and discarded.
type Stats struct {
	Rows    int
	Dropped int
}

// Extractor turns raw tables into cleaned series.
type Extractor struct {
	bond BondYield
}

func NewExtractor(bond BondYield) *Extractor {
	return &Extractor{bond: bond}
}

// Extract selects the descriptor's rows and columns from raw and returns a
// series with strictly increasing unique dates. Rows with an unparseable date
// or value are dropped and counted; when two rows share a date the later row
// in the file wins. A missing column or an empty result is reported as a
// *models.SeriesUnavailableError.
func (e *Extractor) Extract(raw *models.RawTable, d models.SeriesDescriptor) (*models.Series, Stats, error) {
	var st Stats
	if raw == nil {
		return nil, st, &models.SeriesUnavailableError{Series: d.Name, Err: models.ErrSourceNotFound}
	}

	dateIdx := raw.ColumnIndex(d.DateColumn)
	valIdx := raw.ColumnIndex(d.ValueColumn)
	if dateIdx < 0 {
		return nil, st, &models.SeriesUnavailableError{Series: d.Name, Err: fmt.Errorf("%w: %q in %s", models.ErrColumnMissing, d.DateColumn, raw.Key)}
	}
	if valIdx < 0 {
		return nil, st, &models.SeriesUnavailableError{Series: d.Name, Err: fmt.Errorf("%w: %q in %s", models.ErrColumnMissing, d.ValueColumn, raw.Key)}
	}
	filterIdx := -1
	if d.Filter != nil {
		if filterIdx = raw.ColumnIndex(d.Filter.Column); filterIdx < 0 {
			return nil, st, &models.SeriesUnavailableError{Series: d.Name, Err: fmt.Errorf("%w: %q in %s", models.ErrColumnMissing, d.Filter.Column, raw.Key)}
		}
	}

	points := make([]models.Observation, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		if filterIdx >= 0 && strings.TrimSpace(models.Cell(row, filterIdx)) != d.Filter.Equals {
			continue
		}
		date, ok := util.ParseDateIn(models.Cell(row, dateIdx), d.DateLayout)
		if !ok {
			st.Dropped++
			continue
		}
		v, ok := util.ParseNumber(models.Cell(row, valIdx))
		if !ok {
			st.Dropped++
			continue
		}
		if d.Transform == TransformBondPriceToYield {
			v = e.bond.Yield(v)
		}
		points = append(points, models.Observation{Date: date, Value: v})
	}

	points = Clean(points)
	st.Rows = len(points)
	if len(points) == 0 {
		return nil, st, &models.SeriesUnavailableError{Series: d.Name, Err: models.ErrEmptySeries}
	}

	return &models.Series{
		Name:      d.Name,
		Frequency: d.Frequency,
		Unit:      d.Unit,
		Points:    points,
	}, st, nil
}

// Clean sorts observations by date and keeps the last one seen for each date.
func Clean(points []models.Observation) []models.Observation {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
