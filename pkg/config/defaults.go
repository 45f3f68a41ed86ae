package config

import "MarketTiming/internal/domain/models"

// DefaultRemoteBaseURL hosts the published copies of the data files.
const DefaultRemoteBaseURL = "https://raw.githubusercontent.com/sat2567/timing-market/main/"

// DefaultFiles maps source keys to their file names.
func DefaultFiles() map[string]string {
	return map[string]string{
		"nifty50": "Nifty50_Historical_Yahoo.csv",
		"vix":     "India_VIX_Yahoo.csv",
		"midcap":  "NIFTY_MIDCAP_100_Historical_Yahoo.csv",
		"pe_data": "Nifty_Index_Valuation_History.csv",
		"gsec":    "Nifty_10Y_Benchmark_GSec_Merged.csv",
	}
}

// DefaultSeries is the dashboard's series set. Field defaults (date column,
// granularity, aggregator...) are applied by Load.
func DefaultSeries() []models.SeriesDescriptor {
	pe := func(name, index, column string, def float64, fill models.FillPolicy) models.SeriesDescriptor {
		return models.SeriesDescriptor{
			Name:        name,
			Source:      "pe_data",
			ValueColumn: column,
			Filter:      &models.RowFilter{Column: "Index", Equals: index},
			Frequency:   models.FrequencyMonthly,
			Granularity: models.GranularityMonth,
			Fill:        fill,
			Default:     def,
			Unit:        "x",
			Favorable:   models.LowerIsBetter,
		}
	}
	return []models.SeriesDescriptor{
		{Name: "Nifty50", Source: "nifty50", ValueColumn: "Close", Unit: "pts", Base: true},
		{Name: "VIX", Source: "vix", ValueColumn: "VIX_Close", Fill: models.FillForwardConstant, Default: 15,
			MonthlyAgg: models.AggMean, Unit: "pts", Favorable: models.HigherIsBetter},
		{Name: "Midcap100", Source: "midcap", ValueColumn: "Close", Unit: "pts"},
		{Name: "GSec_Yield", Source: "gsec", ValueColumn: "Close", Transform: "bond_price_to_yield",
			Fill: models.FillForwardConstant, Default: 7.2, Unit: "%"},
		pe("Nifty50_PE", "Nifty 50", "PE_Ratio", 22, models.FillForwardConstant),
		pe("Nifty50_PB", "Nifty 50", "PB_Ratio", 0, models.FillForward),
		pe("Nifty50_DivYield", "Nifty 50", "Div_Yield", 0, models.FillForward),
		pe("Midcap_PE", "Nifty Midcap 100", "PE_Ratio", 28, models.FillForwardConstant),
		pe("Smallcap_PE", "Nifty Smallcap 100", "PE_Ratio", 25, models.FillForwardConstant),
	}
}

// DefaultRatios derives the midcap valuation premium over the large caps.
func DefaultRatios() []models.RatioSpec {
	return []models.RatioSpec{
		{Name: "MidcapPremium", Numerator: "Midcap_PE", Denominator: "Nifty50_PE", ZWindow: 24},
	}
}

// DefaultSignalRules reproduces the dashboard's threshold tables, weights,
// regime rules and allocation models.
func DefaultSignalRules() models.SignalRules {
	return models.SignalRules{
		Composite: models.CompositeRules{
			Inputs: []models.CompositeInput{
				{
					Name: "valuation", Column: "ERP", Weight: 0.4,
					Table: models.ThresholdTable{
						Name:      "valuation",
						Direction: models.HigherIsBetter,
						Bands: []models.Band{
							{Bound: 3, Label: "VERY CHEAP", Score: 2},
							{Bound: 1.5, Label: "CHEAP", Score: 1},
							{Bound: 0, Label: "FAIR", Score: 0},
							{Bound: -1.5, Label: "EXPENSIVE", Score: -1},
						},
						Floor: models.Outcome{Label: "VERY EXPENSIVE", Score: -2},
					},
				},
				{
					Name: "sentiment", Column: "VIX", Weight: 0.3,
					Table: models.ThresholdTable{
						Name:      "sentiment",
						Direction: models.HigherIsBetter,
						Bands: []models.Band{
							{Bound: 28, Label: "EXTREME FEAR", Score: 2},
							{Bound: 22, Label: "FEAR", Score: 1},
							{Bound: 15, Label: "NORMAL", Score: 0},
							{Bound: 12, Label: "COMPLACENT", Score: -1},
						},
						Floor: models.Outcome{Label: "EXTREME GREED", Score: -2},
					},
				},
				{
					Name: "pe_percentile", Column: "Nifty50_PE_Pct", Weight: 0.3,
					Table: models.ThresholdTable{
						Name:      "pe_percentile",
						Direction: models.LowerIsBetter,
						Bands: []models.Band{
							{Bound: 40, Label: "BELOW AVERAGE", Score: 1},
						},
						Floor: models.Outcome{Label: "ABOVE AVERAGE", Score: -1},
					},
				},
			},
			Labels: models.ThresholdTable{
				Name:      "recommendation",
				Direction: models.HigherIsBetter,
				Bands: []models.Band{
					{Bound: 1, Label: "AGGRESSIVE BUY", Score: 2},
					{Bound: 0.5, Label: "BUY", Score: 1},
					{Bound: -0.5, Label: "HOLD", Score: 0},
					{Bound: -1, Label: "TRIM", Score: -1},
				},
				Floor: models.Outcome{Label: "SELL", Score: -2},
			},
		},
		Regimes: []models.RegimeRule{
			{Label: "CRASH", When: []models.Condition{
				{Input: "VIX", Op: models.OpGTE, Value: 30},
				{Input: "Drawdown", Op: models.OpLTE, Value: -20},
			}},
			{Label: "CORRECTION", When: []models.Condition{
				{Input: "Drawdown", Op: models.OpLTE, Value: -10},
				{Input: "VIX", Op: models.OpGTE, Value: 20},
			}},
			{Label: "RECOVERY", When: []models.Condition{
				{Input: "Drawdown", Op: models.OpLTE, Value: -10},
				{Input: "VIX", Op: models.OpLT, Value: 20},
				{Input: "score:valuation", Op: models.OpGTE, Value: 1},
			}},
			{Label: "EUPHORIA", When: []models.Condition{
				{Input: "Drawdown", Op: models.OpGTE, Value: -2},
				{Input: "VIX", Op: models.OpLT, Value: 13},
				{Input: "score:valuation", Op: models.OpLTE, Value: -1},
			}},
			{Label: "BULL RUN", When: []models.Condition{
				{Input: "Drawdown", Op: models.OpGTE, Value: -5},
				{Input: "VIX", Op: models.OpLT, Value: 16},
				{Input: "Trend_200", Op: models.OpGT, Value: 0},
			}},
			{Label: models.DefaultRegime},
		},
		Allocations: map[string]models.Allocation{
			"AGGRESSIVE BUY": {Model: "aggressive", Equity: "70-85%", Gold: "5%", Debt: "5%"},
			"BUY":            {Model: "aggressive", Equity: "70-85%", Gold: "5%", Debt: "5%"},
			"HOLD":           {Model: "moderate", Equity: "55-70%", Gold: "10%", Debt: "10%"},
			"TRIM":           {Model: "defensive", Equity: "15-30%", Gold: "25%", Debt: "50%"},
			"SELL":           {Model: "defensive", Equity: "15-30%", Gold: "25%", Debt: "50%"},
		},
	}
}
