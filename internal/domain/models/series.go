package models

import (
	"math"
	"time"
)

// Missing marks an absent observation or an undefined indicator value.
var Missing = math.NaN()

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Frequency is the native update cadence of a series.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyIrregular Frequency = "irregular"
)

// Granularity is the join key used when a series is aligned onto the base calendar.
type Granularity string

const (
	GranularityDate  Granularity = "date"  // exact calendar date
	GranularityMonth Granularity = "month" // any date within the month
)

// FillPolicy decides how gaps are filled after a series is joined.
type FillPolicy string

const (
	FillForward         FillPolicy = "forward"          // carry last value, leading gap stays missing
	FillConstant        FillPolicy = "constant"         // gaps take the declared default
	FillForwardConstant FillPolicy = "forward_constant" // forward, then leading gap takes the default
)

// Direction states which side of a value range is favorable for equities.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// Aggregator reduces a month of daily values to one monthly value.
type Aggregator string

const (
	AggLast Aggregator = "last"
	AggMean Aggregator = "mean"
	AggMax  Aggregator = "max"
	AggMin  Aggregator = "min"
)

// RowFilter keeps raw rows whose Column equals Equals (e.g. Index == "Nifty 50").
type RowFilter struct {
	Column string `yaml:"column" json:"column" validate:"required"`
	Equals string `yaml:"equals" json:"equals" validate:"required"`
}

// SeriesDescriptor declares how one named series is extracted, aligned and filled.
type SeriesDescriptor struct {
	Name        string      `yaml:"name" json:"name" validate:"required"`
	Source      string      `yaml:"source" json:"source" validate:"required"`
	DateColumn  string      `yaml:"date_column" json:"date_column" default:"Date"`
	DateLayout  string      `yaml:"date_layout,omitempty" json:"date_layout,omitempty"`
	ValueColumn string      `yaml:"value_column" json:"value_column" default:"Close"`
	Filter      *RowFilter  `yaml:"filter,omitempty" json:"filter,omitempty"`
	Transform   string      `yaml:"transform,omitempty" json:"transform,omitempty" validate:"omitempty,oneof=bond_price_to_yield"`
	Frequency   Frequency   `yaml:"frequency" json:"frequency" default:"daily" validate:"oneof=daily monthly irregular"`
	Granularity Granularity `yaml:"granularity" json:"granularity" default:"date" validate:"oneof=date month"`
	Fill        FillPolicy  `yaml:"fill" json:"fill" default:"forward" validate:"oneof=forward constant forward_constant"`
	Default     float64     `yaml:"default" json:"default"`
	MonthlyAgg  Aggregator  `yaml:"monthly_agg" json:"monthly_agg" default:"last" validate:"oneof=last mean max min"`
	Unit        string      `yaml:"unit,omitempty" json:"unit,omitempty"`
	Favorable   Direction   `yaml:"favorable,omitempty" json:"favorable,omitempty" validate:"omitempty,oneof=higher_is_better lower_is_better"`
	Base        bool        `yaml:"base" json:"base"`
}

// Observation is one dated value of a series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is a named, date-indexed sequence of observations.
// Dates are strictly increasing and unique once cleaned.
type Series struct {
	Name      string
	Frequency Frequency
	Unit      string
	Points    []Observation
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Empty reports whether the series carries no observations.
func (s *Series) Empty() bool { return s.Len() == 0 }

// DayKey truncates t to its calendar date in UTC.
func DayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthKey returns the first day of t's month in UTC.
func MonthKey(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last calendar day of t's month in UTC.
func MonthEnd(t time.Time) time.Time {
	return MonthKey(t).AddDate(0, 1, -1)
}
