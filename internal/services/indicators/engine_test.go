package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
)

func rules() models.IndicatorRules {
	return models.IndicatorRules{
		Price:            "Nifty50",
		MovingAverages:   []int{2, 3},
		OscillatorWindow: 2,
		TrendWindow:      3,
		ReturnLag:        2,
		PE:               "Nifty50_PE",
		RiskFree:         "GSec_Yield",
		Percentiles:      []string{"Nifty50_PE", "Smallcap_PE"},
		PercentileMode:   models.PercentileStatic,
		Ratios:           []models.RatioSpec{{Name: "MidcapPremium", Numerator: "Midcap_PE", Denominator: "Nifty50_PE", ZWindow: 2}},
	}
}

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestEngineDaily(t *testing.T) {
	in := models.NewTable(models.FrequencyDaily, dates(4)).
		WithColumn("Nifty50", []float64{100, 110, 99, 121}, false)

	out, err := NewEngine(rules()).Daily(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nifty50", "SMA_2", "SMA_3", "ATH", "Drawdown", "RSI", "Trend_3", "Return_1Y"}, out.Columns())
	assert.Equal(t, []string{"Nifty50"}, in.Columns(), "input is not mutated")

	dd, _ := out.Column("Drawdown")
	assertSeries(t, []float64{0, 0, -10, 0}, dd)
	trend, _ := out.Column("Trend_3")
	assertSeries(t, []float64{nan, nan, (99/103.0 - 1) * 100, (121/110.0 - 1) * 100}, trend)
	ret, _ := out.Column("Return_1Y")
	assertSeries(t, []float64{nan, nan, -1, 10}, ret)
}

func TestEngineDailyNeedsPrice(t *testing.T) {
	_, err := NewEngine(rules()).Daily(models.NewTable(models.FrequencyDaily, dates(1)))
	assert.ErrorIs(t, err, models.ErrColumnMissing)
}

func TestEngineMonthly(t *testing.T) {
	in := models.NewTable(models.FrequencyMonthly, dates(3)).
		WithColumn("Nifty50_PE", []float64{20, 25, 20}, false).
		WithColumn("GSec_Yield", []float64{7, 7, 7}, true).
		WithColumn("Midcap_PE", []float64{30, 30, 40}, false)

	out := NewEngine(rules()).Monthly(in)

	erp, _ := out.Column(models.ColERP)
	assertSeries(t, []float64{-2, -3, -2}, erp)
	assert.False(t, out.Synthetic(models.ColERP), "observed PE keeps the spread observed")

	pct, _ := out.Column("Nifty50_PE_Pct")
	assertSeries(t, []float64{200.0 / 3, 100, 200.0 / 3}, pct)
	assert.False(t, out.Has("Smallcap_PE_Pct"), "absent inputs are skipped")

	prem, _ := out.Column("MidcapPremium")
	assertSeries(t, []float64{1.5, 1.2, 2}, prem)
	z, _ := out.Column("MidcapPremium_Z")
	assert.True(t, models.IsMissing(z[0]))
}

func TestEngineMonthlySyntheticInputs(t *testing.T) {
	in := models.NewTable(models.FrequencyMonthly, dates(2)).
		WithColumn("Nifty50_PE", []float64{22, 22}, true).
		WithColumn("GSec_Yield", []float64{7.2, 7.2}, true)

	out := NewEngine(rules()).Monthly(in)
	assert.True(t, out.Synthetic(models.ColEarningsYield))
	assert.True(t, out.Synthetic(models.ColERP))
	assert.True(t, out.Synthetic("Nifty50_PE_Pct"))
}

func TestEngineExpandingMode(t *testing.T) {
	r := rules()
	r.PercentileMode = models.PercentileExpanding
	in := models.NewTable(models.FrequencyMonthly, dates(3)).
		WithColumn("Nifty50_PE", []float64{20, 25, 20}, false)

	out := NewEngine(r).Monthly(in)
	pct, _ := out.Column("Nifty50_PE_Pct")
	assertSeries(t, []float64{100, 100, 200.0 / 3}, pct)
}
