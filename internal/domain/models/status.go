package models

import "time"

// SeriesState is the load outcome of one series in a run.
type SeriesState string

const (
	SeriesLoaded    SeriesState = "loaded"
	SeriesDefaulted SeriesState = "defaulted"
)

// SeriesStatus is the per-series status message shown next to the signal.
type SeriesStatus struct {
	Name    string      `json:"name"`
	Source  string      `json:"source"`
	Origin  string      `json:"origin,omitempty"`
	State   SeriesState `json:"state"`
	Rows    int         `json:"rows"`
	Dropped int         `json:"dropped"`
	First   *time.Time  `json:"first,omitempty"`
	Last    *time.Time  `json:"last,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SectorValuation is the latest valuation of one index segment against its own history.
type SectorValuation struct {
	Index        string    `json:"index"`
	Date         time.Time `json:"date"`
	PE           Float     `json:"pe"`
	PB           Float     `json:"pb"`
	DivYield     Float     `json:"div_yield"`
	PEPercentile Float     `json:"pe_percentile"`
	Observations int       `json:"observations"`
}

// Snapshot is the immutable result of one pipeline run.
type Snapshot struct {
	GeneratedAt time.Time
	Duration    time.Duration
	Daily       *Table
	Monthly     *Table
	Latest      Signal
	History     []Signal
	Sectors     []SectorValuation
	Statuses    []SeriesStatus
}

// Summary is the compact form of a snapshot pushed to subscribers.
type Summary struct {
	GeneratedAt time.Time      `json:"generated_at"`
	AsOf        time.Time      `json:"as_of"`
	Label       string         `json:"label"`
	Score       float64        `json:"score"`
	Regime      string         `json:"regime"`
	SubScores   []SubScore     `json:"sub_scores"`
	Statuses    []SeriesStatus `json:"statuses"`
}

// Summary builds the compact form of s.
func (s *Snapshot) Summary() Summary {
	return Summary{
		GeneratedAt: s.GeneratedAt,
		AsOf:        s.Latest.Date,
		Label:       s.Latest.Label,
		Score:       s.Latest.Score,
		Regime:      s.Latest.Regime,
		SubScores:   s.Latest.SubScores,
		Statuses:    s.Statuses,
	}
}
