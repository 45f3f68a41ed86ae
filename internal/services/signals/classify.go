package signals

import "MarketTiming/internal/domain/models"

// Classify returns the first band of t that v reaches. Higher-is-better
// tables match on v >= bound, lower-is-better tables on v <= bound, so a value
// sitting on a bound falls in the more favorable band. A value beyond every
// band takes the floor; a missing value is NO DATA with a neutral score.
func Classify(t models.ThresholdTable, v float64) models.Classification {
	if models.IsMissing(v) {
		return noData()
	}
	for _, b := range t.Bands {
		if reaches(t.Direction, v, b.Bound) {
			return models.Classification{Label: b.Label, Score: b.Score}
		}
	}
	return models.Classification{Label: t.Floor.Label, Score: t.Floor.Score}
}

func reaches(dir models.Direction, v, bound float64) bool {
	if dir == models.LowerIsBetter {
		return v <= bound
	}
	return v >= bound
}

func noData() models.Classification {
	return models.Classification{Label: models.NoDataLabel, NoData: true}
}
