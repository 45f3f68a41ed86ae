package align

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daily(name string, start time.Time, values ...float64) *models.Series {
	s := &models.Series{Name: name, Frequency: models.FrequencyDaily}
	for i, v := range values {
		s.Points = append(s.Points, models.Observation{Date: start.AddDate(0, 0, i), Value: v})
	}
	return s
}

func descriptors() []models.SeriesDescriptor {
	return []models.SeriesDescriptor{
		{Name: "Nifty50", Source: "nifty50", Base: true, Fill: models.FillForward},
		{Name: "VIX", Source: "vix", Fill: models.FillForwardConstant, Default: 15, Granularity: models.GranularityDate},
		{Name: "Midcap100", Source: "midcap", Fill: models.FillForward, Granularity: models.GranularityDate},
		{Name: "Nifty50_PE", Source: "pe_data", Fill: models.FillForwardConstant, Default: 22, Granularity: models.GranularityMonth},
		{Name: "Nifty50_PB", Source: "pe_data", Fill: models.FillConstant, Default: 3.5, Granularity: models.GranularityMonth},
	}
}

func TestAlignKeepsEveryBaseRow(t *testing.T) {
	base := daily("Nifty50", day(2024, 1, 1), 100, 101, 102, 103, 104)
	vix := daily("VIX", day(2024, 1, 3), 14, 13)
	mid := &models.Series{Points: []models.Observation{
		{Date: day(2023, 12, 30), Value: 50},
		{Date: day(2024, 1, 4), Value: 52},
		{Date: day(2024, 1, 9), Value: 99},
	}}

	table, statuses, err := Align(descriptors(), map[string]*models.Series{
		"Nifty50": base, "VIX": vix, "Midcap100": mid,
	}, Options{})
	require.NoError(t, err)

	require.Equal(t, 5, table.Len())
	for i, d := range table.Dates() {
		assert.Equal(t, base.Points[i].Date, d)
	}
	assert.Equal(t, []string{"Nifty50", "VIX", "Midcap100", "Nifty50_PE", "Nifty50_PB"}, table.Columns())

	v, _ := table.Column("VIX")
	assert.Equal(t, []float64{15, 15, 14, 13, 13}, v, "leading gap takes default, then forward fill")

	m, _ := table.Column("Midcap100")
	assert.Equal(t, []float64{50, 50, 50, 52, 52}, m, "as-of join never looks ahead")

	require.Len(t, statuses, 5)
	assert.Equal(t, models.SeriesLoaded, statuses[1].State)
	assert.Equal(t, models.SeriesDefaulted, statuses[3].State)
	assert.True(t, table.Synthetic("Nifty50_PE"))
	assert.False(t, table.Synthetic("VIX"))
}

func TestAlignForwardWarmupStaysMissing(t *testing.T) {
	base := daily("Nifty50", day(2024, 1, 1), 1, 2, 3)
	mid := daily("Midcap100", day(2024, 1, 2), 7)

	table, _, err := Align(descriptors(), map[string]*models.Series{"Nifty50": base, "Midcap100": mid}, Options{})
	require.NoError(t, err)
	m, _ := table.Column("Midcap100")
	assert.True(t, models.IsMissing(m[0]))
	assert.Equal(t, []float64{7, 7}, m[1:])

	trimmed, _, err := Align(descriptors(), map[string]*models.Series{"Nifty50": base, "Midcap100": mid}, Options{DropWarmup: true})
	require.NoError(t, err)
	assert.Equal(t, 2, trimmed.Len())
	assert.Equal(t, day(2024, 1, 2), trimmed.Dates()[0])
}

func TestAlignMonthlyBroadcast(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 20000 + float64(i)
	}
	base := daily("Nifty50", day(2024, 4, 1), values...)
	pe := &models.Series{Points: []models.Observation{{Date: day(2024, 4, 30), Value: 22.8}}}
	pb := &models.Series{Points: []models.Observation{{Date: day(2024, 4, 30), Value: 3.9}}}

	table, _, err := Align(descriptors(), map[string]*models.Series{"Nifty50": base, "Nifty50_PE": pe, "Nifty50_PB": pb}, Options{})
	require.NoError(t, err)
	require.Equal(t, 30, table.Len())

	col, _ := table.Column("Nifty50_PE")
	for i, v := range col {
		assert.InDelta(t, 22.8, v, 1e-9, "row %d", i)
	}
	pbCol, _ := table.Column("Nifty50_PB")
	for _, v := range pbCol {
		assert.InDelta(t, 3.9, v, 1e-9)
	}
}

func TestAlignMonthLastWriteWins(t *testing.T) {
	base := daily("Nifty50", day(2024, 1, 30), 1, 2, 3, 4)
	pe := &models.Series{Points: []models.Observation{
		{Date: day(2024, 1, 1), Value: 20},
		{Date: day(2024, 1, 31), Value: 21},
		{Date: day(2024, 2, 15), Value: 23},
	}}
	pb := &models.Series{Points: []models.Observation{{Date: day(2024, 1, 31), Value: 3}}}

	table, _, err := Align(descriptors(), map[string]*models.Series{"Nifty50": base, "Nifty50_PE": pe, "Nifty50_PB": pb}, Options{})
	require.NoError(t, err)

	col, _ := table.Column("Nifty50_PE")
	assert.Equal(t, []float64{21, 21, 23, 23}, col)

	pbCol, _ := table.Column("Nifty50_PB")
	assert.Equal(t, []float64{3, 3, 3.5, 3.5}, pbCol, "constant fill does not carry into February")
}

func TestAlignAllSecondaryMissing(t *testing.T) {
	base := daily("Nifty50", day(2024, 1, 1), 1, 2, 3)
	table, statuses, err := Align(descriptors(), map[string]*models.Series{"Nifty50": base, "VIX": {}}, Options{})
	require.NoError(t, err)

	for _, d := range descriptors()[1:] {
		col, ok := table.Column(d.Name)
		require.True(t, ok)
		assert.True(t, table.Synthetic(d.Name))
		for _, v := range col {
			assert.Equal(t, d.Default, v)
		}
	}
	for _, st := range statuses[1:] {
		assert.Equal(t, models.SeriesDefaulted, st.State)
		assert.NotEmpty(t, st.Message)
	}
}

func TestAlignBaseMissing(t *testing.T) {
	_, _, err := Align(descriptors(), map[string]*models.Series{"VIX": daily("VIX", day(2024, 1, 1), 14)}, Options{})
	assert.ErrorIs(t, err, models.ErrBaseSeriesMissing)

	_, _, err = Align(descriptors(), map[string]*models.Series{"Nifty50": {}}, Options{})
	assert.ErrorIs(t, err, models.ErrBaseSeriesMissing)

	_, _, err = Align(descriptors()[1:], map[string]*models.Series{}, Options{})
	assert.ErrorIs(t, err, models.ErrBaseSeriesMissing)
}

func TestResampleMonthly(t *testing.T) {
	dates := []time.Time{day(2024, 1, 30), day(2024, 1, 31), day(2024, 2, 1), day(2024, 2, 2), day(2024, 3, 1)}
	table := models.NewTable(models.FrequencyDaily, dates).
		WithColumn("Nifty50", []float64{1, 2, 3, 4, 5}, false).
		WithColumn("VIX", []float64{10, 20, models.Missing, 30, models.Missing}, false).
		WithColumn("PE", []float64{22, 22, 22, 22, 22}, true)

	out := Resample(table, map[string]models.Aggregator{"VIX": models.AggMean})

	require.Equal(t, 3, out.Len())
	assert.Equal(t, models.FrequencyMonthly, out.Frequency())
	assert.Equal(t, []time.Time{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31)}, out.Dates())

	n, _ := out.Column("Nifty50")
	assert.Equal(t, []float64{2, 4, 5}, n)

	v, _ := out.Column("VIX")
	assert.InDelta(t, 15, v[0], 1e-9)
	assert.InDelta(t, 30, v[1], 1e-9)
	assert.True(t, models.IsMissing(v[2]))

	assert.True(t, out.Synthetic("PE"))
}

func TestReduce(t *testing.T) {
	xs := []float64{3, models.Missing, 1, 2}
	assert.Equal(t, 2.0, reduce(xs, models.AggLast))
	assert.Equal(t, 3.0, reduce(xs, models.AggMax))
	assert.Equal(t, 1.0, reduce(xs, models.AggMin))
	assert.Equal(t, 2.0, reduce(xs, models.AggMean))
	assert.True(t, models.IsMissing(reduce([]float64{models.Missing}, models.AggMean)))
}

func TestAggregators(t *testing.T) {
	aggs := Aggregators([]models.SeriesDescriptor{{Name: "VIX", MonthlyAgg: models.AggMean}, {Name: "X"}})
	assert.Equal(t, map[string]models.Aggregator{"VIX": models.AggMean}, aggs)
}
