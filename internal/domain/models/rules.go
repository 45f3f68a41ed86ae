package models

import "fmt"

// Band is one threshold of a ThresholdTable.
type Band struct {
	Bound float64 `yaml:"bound" json:"bound"`
	Label string  `yaml:"label" json:"label" validate:"required"`
	Score float64 `yaml:"score" json:"score"`
}

// Outcome is the label/score pair used when no band matches.
type Outcome struct {
	Label string  `yaml:"label" json:"label" validate:"required"`
	Score float64 `yaml:"score" json:"score"`
}

// ThresholdTable maps a value to a labeled band. Bands are ordered from the
// most favorable to the least favorable side of Direction.
type ThresholdTable struct {
	Name      string    `yaml:"name" json:"name"`
	Direction Direction `yaml:"direction" json:"direction" default:"higher_is_better" validate:"oneof=higher_is_better lower_is_better"`
	Bands     []Band    `yaml:"bands" json:"bands" validate:"min=1,dive"`
	Floor     Outcome   `yaml:"floor" json:"floor"`
}

// CompositeInput is one weighted indicator of the composite score.
type CompositeInput struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Column string         `yaml:"column" json:"column" validate:"required"`
	Weight float64        `yaml:"weight" json:"weight" validate:"gt=0"`
	Table  ThresholdTable `yaml:"table" json:"table"`
}

// CompositeRules is the weighted-sum scoring model and its label table.
type CompositeRules struct {
	Inputs []CompositeInput `yaml:"inputs" json:"inputs" validate:"min=1,dive"`
	Labels ThresholdTable   `yaml:"labels" json:"labels"`
}

// Comparison operators for regime conditions.
const (
	OpLT  = "lt"
	OpLTE = "lte"
	OpGT  = "gt"
	OpGTE = "gte"
)

// Condition tests one input against a constant. Input is a table column or
// "score:<composite input name>".
type Condition struct {
	Input string  `yaml:"input" json:"input" validate:"required"`
	Op    string  `yaml:"op" json:"op" validate:"oneof=lt lte gt gte"`
	Value float64 `yaml:"value" json:"value"`
}

// RegimeRule matches when all of its conditions hold. A rule without
// conditions always matches.
type RegimeRule struct {
	Label string      `yaml:"label" json:"label" validate:"required"`
	When  []Condition `yaml:"when" json:"when" validate:"dive"`
}

// SignalRules bundles everything the signal engine needs.
type SignalRules struct {
	Composite   CompositeRules        `yaml:"composite" json:"composite"`
	Regimes     []RegimeRule          `yaml:"regimes" json:"regimes" validate:"dive"`
	Allocations map[string]Allocation `yaml:"allocations" json:"allocations"`
}

// RatioSpec derives Numerator/Denominator and its rolling z-score.
type RatioSpec struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Numerator   string `yaml:"numerator" json:"numerator" validate:"required"`
	Denominator string `yaml:"denominator" json:"denominator" validate:"required"`
	ZWindow     int    `yaml:"z_window" json:"z_window" default:"24" validate:"gte=2"`
}

// Percentile ranking modes.
const (
	PercentileStatic    = "static"
	PercentileExpanding = "expanding"
)

// IndicatorRules names the input columns and windows of the indicator engine.
type IndicatorRules struct {
	Price            string      `yaml:"price" json:"price" default:"Nifty50"`
	MovingAverages   []int       `yaml:"moving_averages" json:"moving_averages" default:"[50,200]" validate:"dive,gte=1"`
	OscillatorWindow int         `yaml:"oscillator_window" json:"oscillator_window" default:"14" validate:"gte=1"`
	TrendWindow      int         `yaml:"trend_window" json:"trend_window" default:"200" validate:"gte=1"`
	ReturnLag        int         `yaml:"return_lag" json:"return_lag" default:"252" validate:"gte=1"`
	PE               string      `yaml:"pe" json:"pe" default:"Nifty50_PE"`
	RiskFree         string      `yaml:"risk_free" json:"risk_free" default:"GSec_Yield"`
	Percentiles      []string    `yaml:"percentiles" json:"percentiles" default:"[\"Nifty50_PE\",\"Midcap_PE\",\"Smallcap_PE\"]"`
	PercentileMode   string      `yaml:"percentile_mode" json:"percentile_mode" default:"static" validate:"oneof=static expanding"`
	Ratios           []RatioSpec `yaml:"ratios" json:"ratios" validate:"dive"`
}

// Indicator column names.
const (
	ColATH           = "ATH"
	ColDrawdown      = "Drawdown"
	ColRSI           = "RSI"
	ColReturn1Y      = "Return_1Y"
	ColEarningsYield = "Earnings_Yield"
	ColERP           = "ERP"
)

// Validate checks that bounds move strictly away from the favorable side and
// that a floor outcome exists.
func (t ThresholdTable) Validate() error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("threshold table %q: no bands", t.Name)
	}
	if t.Floor.Label == "" {
		return fmt.Errorf("threshold table %q: floor label required", t.Name)
	}
	for i := 1; i < len(t.Bands); i++ {
		prev, cur := t.Bands[i-1].Bound, t.Bands[i].Bound
		switch t.Direction {
		case LowerIsBetter:
			if cur <= prev {
				return fmt.Errorf("threshold table %q: bound %v must be greater than %v", t.Name, cur, prev)
			}
		default:
			if cur >= prev {
				return fmt.Errorf("threshold table %q: bound %v must be less than %v", t.Name, cur, prev)
			}
		}
	}
	return nil
}
