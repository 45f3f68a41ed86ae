package models

import "time"

// NoDataLabel is reported for a missing or synthetic indicator value.
const NoDataLabel = "NO DATA"

// DefaultRegime is the catch-all regime label.
const DefaultRegime = "TRANSITIONAL"

// Classification is the band a single value falls into.
type Classification struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	NoData bool    `json:"no_data,omitempty"`
}

// SubScore is one weighted input of the composite.
type SubScore struct {
	Name         string  `json:"name"`
	Column       string  `json:"column"`
	Value        Float   `json:"value"`
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Allocation is a suggested asset mix for a recommendation label.
type Allocation struct {
	Model  string `yaml:"model" json:"model"`
	Equity string `yaml:"equity" json:"equity"`
	Gold   string `yaml:"gold" json:"gold"`
	Debt   string `yaml:"debt" json:"debt"`
}

// Signal is the recommendation derived from one indicator row.
type Signal struct {
	Date       time.Time   `json:"date"`
	Label      string      `json:"label"`
	Score      float64     `json:"score"`
	SubScores  []SubScore  `json:"sub_scores"`
	Regime     string      `json:"regime"`
	Allocation *Allocation `json:"allocation,omitempty"`
}

// SubScore returns the named sub-score.
func (s Signal) SubScore(name string) (SubScore, bool) {
	for _, ss := range s.SubScores {
		if ss.Name == name {
			return ss, true
		}
	}
	return SubScore{}, false
}
