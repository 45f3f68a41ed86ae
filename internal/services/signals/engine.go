package signals

import (
	"fmt"
	"math"
	"strings"

	"MarketTiming/internal/domain/models"
)

// ScorePrefix marks a regime condition input that refers to a composite
// sub-score rather than a table column.
const ScorePrefix = "score:"

// Engine turns indicator rows into signals. It holds no state beyond its
// rules, so Evaluate is deterministic and safe for concurrent use.
type Engine struct {
	rules models.SignalRules
}

// NewEngine validates the rules and guarantees a trailing catch-all regime.
func NewEngine(rules models.SignalRules) (*Engine, error) {
	if len(rules.Composite.Inputs) == 0 {
		return nil, fmt.Errorf("signals: composite has no inputs")
	}
	for _, in := range rules.Composite.Inputs {
		if in.Weight <= 0 {
			return nil, fmt.Errorf("signals: input %q: weight must be positive", in.Name)
		}
		if err := in.Table.Validate(); err != nil {
			return nil, fmt.Errorf("signals: input %q: %w", in.Name, err)
		}
	}
	if err := rules.Composite.Labels.Validate(); err != nil {
		return nil, fmt.Errorf("signals: labels: %w", err)
	}

	regimes := make([]models.RegimeRule, 0, len(rules.Regimes)+1)
	for _, r := range rules.Regimes {
		if len(r.When) == 0 {
			continue
		}
		for _, c := range r.When {
			switch c.Op {
			case models.OpLT, models.OpLTE, models.OpGT, models.OpGTE:
			default:
				return nil, fmt.Errorf("signals: regime %q: unknown operator %q", r.Label, c.Op)
			}
		}
		regimes = append(regimes, r)
	}
	regimes = append(regimes, models.RegimeRule{Label: catchAll(rules.Regimes)})
	rules.Regimes = regimes

	return &Engine{rules: rules}, nil
}

// catchAll keeps the label of a configured unconditional rule.
func catchAll(rules []models.RegimeRule) string {
	for _, r := range rules {
		if len(r.When) == 0 && r.Label != "" {
			return r.Label
		}
	}
	return models.DefaultRegime
}

// Evaluate scores one row. Inputs that are missing or synthetic contribute
// NO DATA with a neutral score.
func (e *Engine) Evaluate(row models.Row) models.Signal {
	subs := make([]models.SubScore, 0, len(e.rules.Composite.Inputs))
	total := 0.0
	for _, in := range e.rules.Composite.Inputs {
		v := row.Get(in.Column)
		c := noData()
		if !row.Synthetic[in.Column] {
			c = Classify(in.Table, v)
		}
		contribution := in.Weight * c.Score
		total += contribution
		subs = append(subs, models.SubScore{
			Name:         in.Name,
			Column:       in.Column,
			Value:        models.Float(v),
			Label:        c.Label,
			Score:        c.Score,
			Weight:       in.Weight,
			Contribution: contribution,
		})
	}
	total = round(total)

	sig := models.Signal{
		Date:      row.Date,
		Label:     Classify(e.rules.Composite.Labels, total).Label,
		Score:     total,
		SubScores: subs,
	}
	sig.Regime = e.regime(row, subs)
	if a, ok := e.rules.Allocations[sig.Label]; ok {
		sig.Allocation = &a
	}
	return sig
}

// History evaluates the last n rows of t, oldest first.
func (e *Engine) History(t *models.Table, n int) []models.Signal {
	if t.Len() == 0 {
		return nil
	}
	if n <= 0 || n > t.Len() {
		n = t.Len()
	}
	out := make([]models.Signal, 0, n)
	for i := t.Len() - n; i < t.Len(); i++ {
		out = append(out, e.Evaluate(t.Row(i)))
	}
	return out
}

// Latest evaluates the last row of t.
func (e *Engine) Latest(t *models.Table) (models.Signal, bool) {
	row, ok := t.Latest()
	if !ok {
		return models.Signal{}, false
	}
	return e.Evaluate(row), true
}

func (e *Engine) regime(row models.Row, subs []models.SubScore) string {
	for _, r := range e.rules.Regimes {
		if matches(r, row, subs) {
			return r.Label
		}
	}
	return models.DefaultRegime
}

func matches(r models.RegimeRule, row models.Row, subs []models.SubScore) bool {
	for _, c := range r.When {
		v := input(c.Input, row, subs)
		if models.IsMissing(v) || !compare(c.Op, v, c.Value) {
			return false
		}
	}
	return true
}

func input(name string, row models.Row, subs []models.SubScore) float64 {
	if sub, ok := strings.CutPrefix(name, ScorePrefix); ok {
		for _, s := range subs {
			if s.Name == sub && s.Label != models.NoDataLabel {
				return s.Score
			}
		}
		return models.Missing
	}
	if row.Synthetic[name] {
		return models.Missing
	}
	return row.Get(name)
}

func compare(op string, v, ref float64) bool {
	switch op {
	case models.OpLT:
		return v < ref
	case models.OpLTE:
		return v <= ref
	case models.OpGT:
		return v > ref
	case models.OpGTE:
		return v >= ref
	}
	return false
}

// round trims float noise so composite scores on a label bound compare equal.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
