package indicators

import (
	"math"
	"sort"

	"MarketTiming/internal/domain/models"
)

// All functions take and return slices of equal length. Missing inputs are
// NaN and propagate; they are never replaced by zero.

func missing(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = models.Missing
	}
	return out
}

// MovingAverage is the simple rolling mean over window rows. The first
// window-1 rows, and any row whose window holds a missing value, are missing.
func MovingAverage(xs []float64, window int) []float64 {
	out := missing(len(xs))
	if window <= 0 {
		return out
	}
	sum := 0.0
	gaps := 0
	for i, x := range xs {
		if models.IsMissing(x) {
			gaps++
		} else {
			sum += x
		}
		if i >= window {
			old := xs[i-window]
			if models.IsMissing(old) {
				gaps--
			} else {
				sum -= old
			}
		}
		if i >= window-1 && gaps == 0 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingMax is the running maximum of the values observed so far.
func RollingMax(xs []float64) []float64 {
	out := missing(len(xs))
	peak := models.Missing
	for i, x := range xs {
		if !models.IsMissing(x) && (models.IsMissing(peak) || x > peak) {
			peak = x
		}
		out[i] = peak
	}
	return out
}

// Drawdown is the percent distance below the running maximum. It is never
// positive and exactly zero on a new high.
func Drawdown(xs []float64) []float64 {
	peaks := RollingMax(xs)
	out := missing(len(xs))
	for i, x := range xs {
		p := peaks[i]
		if models.IsMissing(x) || models.IsMissing(p) || p <= 0 {
			continue
		}
		dd := (x/p - 1) * 100
		if dd > 0 {
			dd = 0
		}
		out[i] = dd
	}
	return out
}

// Oscillator is the relative strength index with simple means: the average
// gain over the average loss of the last window price changes, mapped to
// 100 - 100/(1+rs). The first window rows are warm-up. A window without
// losses reads 100.
func Oscillator(xs []float64, window int) []float64 {
	out := missing(len(xs))
	if window <= 0 {
		return out
	}
	for i := window; i < len(xs); i++ {
		gain, loss := 0.0, 0.0
		ok := true
		for k := i - window + 1; k <= i; k++ {
			a, b := xs[k-1], xs[k]
			if models.IsMissing(a) || models.IsMissing(b) {
				ok = false
				break
			}
			if d := b - a; d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if !ok {
			continue
		}
		if loss == 0 {
			out[i] = 100
			continue
		}
		rs := (gain / float64(window)) / (loss / float64(window))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// PercentileRank ranks every value against the whole history: the share of
// observed values less than or equal to it, times 100. The largest value
// ranks 100. Values later in the history affect earlier ranks.
func PercentileRank(xs []float64) []float64 {
	sorted := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !models.IsMissing(x) {
			sorted = append(sorted, x)
		}
	}
	sort.Float64s(sorted)

	out := missing(len(xs))
	n := float64(len(sorted))
	for i, x := range xs {
		if models.IsMissing(x) {
			continue
		}
		le := sort.Search(len(sorted), func(k int) bool { return sorted[k] > x })
		out[i] = float64(le) / n * 100
	}
	return out
}

// ExpandingPercentileRank ranks every value only against the values observed
// up to and including its own row.
func ExpandingPercentileRank(xs []float64) []float64 {
	uniq := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !models.IsMissing(x) {
			uniq = append(uniq, x)
		}
	}
	sort.Float64s(uniq)
	uniq = dedup(uniq)

	tree := newFenwick(len(uniq))
	out := missing(len(xs))
	seen := 0
	for i, x := range xs {
		if models.IsMissing(x) {
			continue
		}
		pos := sort.SearchFloat64s(uniq, x)
		tree.add(pos, 1)
		seen++
		out[i] = float64(tree.prefix(pos)) / float64(seen) * 100
	}
	return out
}

// EarningsYield is 100 / pe in percent; a non-positive pe is missing.
func EarningsYield(pe []float64) []float64 {
	out := missing(len(pe))
	for i, v := range pe {
		if models.IsMissing(v) || v <= 0 {
			continue
		}
		out[i] = 100 / v
	}
	return out
}

// YieldSpread is ey - rf, the equity risk premium when ey is an earnings
// yield and rf a risk-free yield.
func YieldSpread(ey, rf []float64) []float64 {
	out := missing(len(ey))
	for i := range ey {
		out[i] = ey[i] - rf[i]
	}
	return out
}

// Ratio is a / b; a zero denominator is missing.
func Ratio(a, b []float64) []float64 {
	out := missing(len(a))
	for i := range a {
		if b[i] == 0 {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// Distance is the percent distance of xs above ref.
func Distance(xs, ref []float64) []float64 {
	out := missing(len(xs))
	for i := range xs {
		if ref[i] == 0 {
			continue
		}
		out[i] = (xs[i]/ref[i] - 1) * 100
	}
	return out
}

// ZScore standardizes each value against the trailing window with the sample
// standard deviation. A window of identical values scores 0.
func ZScore(xs []float64, window int) []float64 {
	out := missing(len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]
		mean, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
		ok := true
		for _, x := range w {
			if models.IsMissing(x) {
				ok = false
				break
			}
			mean += x
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		if !ok {
			continue
		}
		if lo == hi {
			out[i] = 0
			continue
		}
		mean /= float64(window)
		ss := 0.0
		for _, x := range w {
			ss += (x - mean) * (x - mean)
		}
		std := math.Sqrt(ss / float64(window-1))
		out[i] = (xs[i] - mean) / std
	}
	return out
}

// PercentChange is the percent change over lag rows.
func PercentChange(xs []float64, lag int) []float64 {
	out := missing(len(xs))
	if lag <= 0 {
		return out
	}
	for i := lag; i < len(xs); i++ {
		prev := xs[i-lag]
		if prev == 0 {
			continue
		}
		out[i] = (xs[i]/prev - 1) * 100
	}
	return out
}

func dedup(sorted []float64) []float64 {
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
