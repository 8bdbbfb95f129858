package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultFenceMultiplier is the Tukey fence distance in IQRs.
const DefaultFenceMultiplier = 1.5

// Every function here drops NaN and ±Inf before computing and reports
// ok=false instead of returning NaN when nothing is left.

// FiniteValues returns the finite entries of data in their original order.
func FiniteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func sortedFinite(data []float64) []float64 {
	out := FiniteValues(data)
	sort.Float64s(out)
	return out
}

// Sum adds the finite values.
func Sum(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Sum(xs), true
}

// Mean is the arithmetic average.
func Mean(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// Min returns the smallest finite value.
func Min(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Min(xs), true
}

// Max returns the largest finite value.
func Max(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Max(xs), true
}

// Range is max - min.
func Range(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	return floats.Max(xs) - floats.Min(xs), true
}

// Median is the middle value, or the average of the two middle values for
// an even count.
func Median(data []float64) (float64, bool) {
	return Percentile(data, 50)
}

// Mode returns every value that shares the highest frequency, ascending.
func Mode(data []float64) ([]float64, bool) {
	xs := sortedFinite(data)
	if len(xs) == 0 {
		return nil, false
	}
	var modes []float64
	best := 0
	for i := 0; i < len(xs); {
		j := i
		for j < len(xs) && xs[j] == xs[i] {
			j++
		}
		switch n := j - i; {
		case n > best:
			best = n
			modes = []float64{xs[i]}
		case n == best:
			modes = append(modes, xs[i])
		}
		i = j
	}
	return modes, true
}

// Variance is the population variance (divides by N).
func Variance(data []float64) (float64, bool) {
	xs := FiniteValues(data)
	if len(xs) == 0 {
		return 0, false
	}
	_, variance := stat.PopMeanVariance(xs, nil)
	return variance, true
}

// StdDev is the population standard deviation.
func StdDev(data []float64) (float64, bool) {
	variance, ok := Variance(data)
	if !ok {
		return 0, false
	}
	return math.Sqrt(variance), true
}

// Percentile interpolates linearly between the order statistics that
// bracket rank p/100*(n-1). p must lie in [0, 100].
func Percentile(data []float64, p float64) (float64, bool) {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, false
	}
	xs := sortedFinite(data)
	if len(xs) == 0 {
		return 0, false
	}
	return percentileSorted(xs, p), true
}

func percentileSorted(sorted []float64, p float64) float64 {
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Quartiles holds the 25th, 50th and 75th percentiles.
type Quartiles struct {
	Q1 float64 `json:"q1"`
	Q2 float64 `json:"q2"`
	Q3 float64 `json:"q3"`
}

// ComputeQuartiles returns Q1, Q2 and Q3.
func ComputeQuartiles(data []float64) (Quartiles, bool) {
	xs := sortedFinite(data)
	if len(xs) == 0 {
		return Quartiles{}, false
	}
	return Quartiles{
		Q1: percentileSorted(xs, 25),
		Q2: percentileSorted(xs, 50),
		Q3: percentileSorted(xs, 75),
	}, true
}

// IQR is Q3 - Q1.
func IQR(data []float64) (float64, bool) {
	q, ok := ComputeQuartiles(data)
	if !ok {
		return 0, false
	}
	return q.Q3 - q.Q1, true
}

// OutlierReport lists values outside the Tukey fences.
type OutlierReport struct {
	Outliers   []float64 `json:"outliers"`
	LowerFence float64   `json:"lower_fence"`
	UpperFence float64   `json:"upper_fence"`
}

// DetectOutliers flags values outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR].
func DetectOutliers(data []float64) (OutlierReport, bool) {
	return DetectOutliersWithFence(data, DefaultFenceMultiplier)
}

// DetectOutliersWithFence is DetectOutliers with a custom IQR multiplier.
// Outliers are returned in input order.
func DetectOutliersWithFence(data []float64, k float64) (OutlierReport, bool) {
	q, ok := ComputeQuartiles(data)
	if !ok || math.IsNaN(k) || k < 0 {
		return OutlierReport{}, false
	}
	iqr := q.Q3 - q.Q1
	rep := OutlierReport{
		Outliers:   []float64{},
		LowerFence: q.Q1 - k*iqr,
		UpperFence: q.Q3 + k*iqr,
	}
	for _, v := range FiniteValues(data) {
		if v < rep.LowerFence || v > rep.UpperFence {
			rep.Outliers = append(rep.Outliers, v)
		}
	}
	return rep, true
}

// Deviation is the signed percentage (actual - expected) / expected * 100.
func Deviation(actual, expected float64) (float64, bool) {
	if !isFinite(actual) || !isFinite(expected) || expected == 0 {
		return 0, false
	}
	return (actual - expected) / expected * 100, true
}

// IsWithinTolerance reports whether value deviates from target by at most
// tolerancePercent. An undefined deviation is never within tolerance.
func IsWithinTolerance(value, target, tolerancePercent float64) bool {
	d, ok := Deviation(value, target)
	if !ok {
		return false
	}
	return math.Abs(d) <= tolerancePercent
}

// PassRate is passCount/total as a percentage.
func PassRate(passCount, total int) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(passCount) / float64(total) * 100, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
