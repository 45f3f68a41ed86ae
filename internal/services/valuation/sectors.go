package valuation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/util"
)

// Columns names the fields of a multi-index valuation table.
type Columns struct {
	Index    string
	Date     string
	PE       string
	PB       string
	DivYield string
	// MinHistory is the number of observations an index must exceed before
	// its percentile is reported.
	MinHistory int
}

type record struct {
	index string
	date  time.Time
	pe    float64
	pb    float64
	dy    float64
}

// Sectors builds the latest valuation of every index present on the most
// recent date of raw. Each index's PE is ranked against its own history as
// the share of observations strictly below it. Rows are ordered by that
// percentile, cheapest first; indices without enough history come last.
func Sectors(raw *models.RawTable, cols Columns) ([]models.SectorValuation, error) {
	if raw == nil {
		return nil, models.ErrSourceNotFound
	}
	ii, di, pi := raw.ColumnIndex(cols.Index), raw.ColumnIndex(cols.Date), raw.ColumnIndex(cols.PE)
	for name, i := range map[string]int{cols.Index: ii, cols.Date: di, cols.PE: pi} {
		if i < 0 {
			return nil, fmt.Errorf("%w: %q in %s", models.ErrColumnMissing, name, raw.Key)
		}
	}
	bi, yi := raw.ColumnIndex(cols.PB), raw.ColumnIndex(cols.DivYield)

	var records []record
	var latest time.Time
	for _, row := range raw.Rows {
		date, ok := util.ParseDate(models.Cell(row, di))
		if !ok {
			continue
		}
		r := record{
			index: strings.TrimSpace(models.Cell(row, ii)),
			date:  date,
			pe:    number(row, pi),
			pb:    number(row, bi),
			dy:    number(row, yi),
		}
		records = append(records, r)
		if date.After(latest) {
			latest = date
		}
	}

	history := make(map[string][]float64)
	for _, r := range records {
		if !models.IsMissing(r.pe) {
			history[r.index] = append(history[r.index], r.pe)
		}
	}

	var out []models.SectorValuation
	seen := make(map[string]bool)
	for _, r := range records {
		if !r.date.Equal(latest) || seen[r.index] {
			continue
		}
		seen[r.index] = true
		h := history[r.index]
		sv := models.SectorValuation{
			Index:        r.index,
			Date:         r.date,
			PE:           models.Float(r.pe),
			PB:           models.Float(r.pb),
			DivYield:     models.Float(r.dy),
			PEPercentile: models.Float(models.Missing),
			Observations: len(h),
		}
		if len(h) > cols.MinHistory && !models.IsMissing(r.pe) {
			below := 0
			for _, v := range h {
				if v < r.pe {
					below++
				}
			}
			sv.PEPercentile = models.Float(float64(below) / float64(len(h)) * 100)
		}
		out = append(out, sv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := float64(out[i].PEPercentile), float64(out[j].PEPercentile)
		if models.IsMissing(b) {
			return !models.IsMissing(a)
		}
		return !models.IsMissing(a) && a < b
	})
	return out, nil
}

func number(row []string, i int) float64 {
	v, ok := util.ParseNumber(models.Cell(row, i))
	if !ok {
		return models.Missing
	}
	return v
}
