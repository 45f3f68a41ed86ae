package indicators

import (
	"fmt"

	"MarketTiming/internal/domain/models"
)

// Engine derives the configured indicator columns. It never mutates its
// input; every method returns a new table.
type Engine struct {
	rules models.IndicatorRules
}

func NewEngine(rules models.IndicatorRules) *Engine {
	return &Engine{rules: rules}
}

// MovingAverageColumn names the moving average column for a window.
func MovingAverageColumn(window int) string { return fmt.Sprintf("SMA_%d", window) }

// TrendColumn names the percent distance from the moving average of a window.
func TrendColumn(window int) string { return fmt.Sprintf("Trend_%d", window) }

// PercentileColumn names the percentile column of a series.
func PercentileColumn(name string) string { return name + "_Pct" }

// ZScoreColumn names the rolling z-score column of a ratio.
func ZScoreColumn(name string) string { return name + "_Z" }

// Daily adds price-based indicators: moving averages, all-time high,
// drawdown, oscillator, trend distance and trailing return.
func (e *Engine) Daily(t *models.Table) (*models.Table, error) {
	price, ok := t.Column(e.rules.Price)
	if !ok {
		return nil, fmt.Errorf("%w: price column %q", models.ErrColumnMissing, e.rules.Price)
	}
	syn := t.Synthetic(e.rules.Price)

	out := t
	for _, w := range e.rules.MovingAverages {
		out = out.WithColumn(MovingAverageColumn(w), MovingAverage(price, w), syn)
	}
	out = out.WithColumn(models.ColATH, RollingMax(price), syn)
	out = out.WithColumn(models.ColDrawdown, Drawdown(price), syn)
	out = out.WithColumn(models.ColRSI, Oscillator(price, e.rules.OscillatorWindow), syn)

	ma, ok := out.Column(MovingAverageColumn(e.rules.TrendWindow))
	if !ok {
		ma = MovingAverage(price, e.rules.TrendWindow)
	}
	out = out.WithColumn(TrendColumn(e.rules.TrendWindow), Distance(price, ma), syn)
	out = out.WithColumn(models.ColReturn1Y, PercentChange(price, e.rules.ReturnLag), syn)
	return out, nil
}

// Monthly adds valuation indicators: earnings yield, the yield spread over
// the risk-free rate, percentile ranks and cross-series ratios. Indicators
// whose inputs are absent are skipped. A derived column is synthetic only
// when every input column is.
func (e *Engine) Monthly(t *models.Table) *models.Table {
	out := t

	if pe, ok := t.Column(e.rules.PE); ok {
		ey := EarningsYield(pe)
		peSyn := t.Synthetic(e.rules.PE)
		out = out.WithColumn(models.ColEarningsYield, ey, peSyn)
		if rf, ok := t.Column(e.rules.RiskFree); ok {
			out = out.WithColumn(models.ColERP, YieldSpread(ey, rf), peSyn && t.Synthetic(e.rules.RiskFree))
		}
	}

	rank := PercentileRank
	if e.rules.PercentileMode == models.PercentileExpanding {
		rank = ExpandingPercentileRank
	}
	for _, name := range e.rules.Percentiles {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		out = out.WithColumn(PercentileColumn(name), rank(col), t.Synthetic(name))
	}

	for _, r := range e.rules.Ratios {
		num, ok1 := t.Column(r.Numerator)
		den, ok2 := t.Column(r.Denominator)
		if !ok1 || !ok2 {
			continue
		}
		syn := t.Synthetic(r.Numerator) && t.Synthetic(r.Denominator)
		ratio := Ratio(num, den)
		out = out.WithColumn(r.Name, ratio, syn)
		out = out.WithColumn(ZScoreColumn(r.Name), ZScore(ratio, r.ZWindow), syn)
	}
	return out
}
