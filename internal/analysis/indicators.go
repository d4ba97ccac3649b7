// Package analysis holds the pure threshold rules the collectors use to
// turn raw counts into qualitative labels.
package analysis

import (
	"cmp"
	"math"
	"slices"
)

// Qualitative labels shared by several sources.
const (
	Increasing   = "increasing"
	Stable       = "stable"
	Decreasing   = "decreasing"
	Accelerating = "accelerating"
	Steady       = "steady"
	Decelerating = "decelerating"
	Unknown      = "unknown"
)

// tradingDays annualizes daily return volatility.
const tradingDays = 252

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Velocity is the relative change from historical to recent. With no
// history it is 0 when recent is also zero and 1 otherwise.
func Velocity(recent, historical float64) float64 {
	if historical == 0 {
		if recent == 0 {
			return 0
		}
		return 1
	}
	return (recent - historical) / historical
}

// RateTrend compares two per-period rates against a symmetric band,
// e.g. band 0.3 means more than 30% higher or lower.
func RateTrend(recent, historical, band float64) string {
	if historical == 0 {
		if recent == 0 {
			return Stable
		}
		return Increasing
	}
	diff := (recent - historical) / historical
	switch {
	case diff > band:
		return Increasing
	case diff < -band:
		return Decreasing
	default:
		return Stable
	}
}

// RateMomentum classifies the ratio recent/historical: above hi is
// accelerating, below lo is decelerating.
func RateMomentum(recent, historical, hi, lo float64) string {
	if historical == 0 {
		if recent == 0 {
			return Steady
		}
		return Accelerating
	}
	ratio := recent / historical
	switch {
	case ratio > hi:
		return Accelerating
	case ratio < lo:
		return Decelerating
	default:
		return Steady
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// StdDev returns the sample standard deviation (n-1 denominator).
func StdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := Mean(vs)
	var ss float64
	for _, v := range vs {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}

// PriceChange is the fractional change from the first close to the last.
func PriceChange(closes []float64) float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return 0
	}
	return (closes[len(closes)-1] - closes[0]) / closes[0]
}

// Volatility is the annualized standard deviation of daily returns.
func Volatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) == 0 {
		return 0
	}
	return StdDev(returns) * math.Sqrt(tradingDays)
}

// Count pairs a key with its tally.
type Count struct {
	Key string
	N   int
}

// TopCounts returns up to n entries of m, highest count first. Ties are
// broken by key so the order is deterministic.
func TopCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, N: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.N, a.N); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
