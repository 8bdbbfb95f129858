package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicStats(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	sum, ok := Sum(data)
	require.True(t, ok)
	assert.Equal(t, 40.0, sum)

	mean, _ := Mean(data)
	assert.Equal(t, 5.0, mean)

	lo, _ := Min(data)
	hi, _ := Max(data)
	rng, _ := Range(data)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 9.0, hi)
	assert.Equal(t, 7.0, rng)

	variance, _ := Variance(data)
	assert.InDelta(t, 4.0, variance, 1e-12)
	sd, _ := StdDev(data)
	assert.InDelta(t, 2.0, sd, 1e-12)

	median, _ := Median(data)
	assert.Equal(t, 4.5, median)
}

func TestStatsIgnoreNonFinite(t *testing.T) {
	data := []float64{1, math.NaN(), 3, math.Inf(1), math.Inf(-1)}
	mean, ok := Mean(data)
	require.True(t, ok)
	assert.Equal(t, 2.0, mean)

	assert.Equal(t, []float64{1, 3}, FiniteValues(data))
}

func TestStatsEmptyInput(t *testing.T) {
	empty := [][]float64{nil, {}, {math.NaN()}}
	for _, data := range empty {
		_, ok := Mean(data)
		assert.False(t, ok)
		_, ok = Sum(data)
		assert.False(t, ok)
		_, ok = Min(data)
		assert.False(t, ok)
		_, ok = Median(data)
		assert.False(t, ok)
		_, ok = Mode(data)
		assert.False(t, ok)
		_, ok = StdDev(data)
		assert.False(t, ok)
		_, ok = ComputeQuartiles(data)
		assert.False(t, ok)
		_, ok = DetectOutliers(data)
		assert.False(t, ok)
	}
}

func TestMode(t *testing.T) {
	modes, ok := Mode([]float64{3, 1, 3, 1, 2})
	require.True(t, ok)
	assert.Equal(t, []float64{1, 3}, modes)

	modes, _ = Mode([]float64{5})
	assert.Equal(t, []float64{5}, modes)
}

func TestPercentile(t *testing.T) {
	data := []float64{15, 20, 35, 40, 50}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 15},
		{25, 20},
		{40, 29},
		{50, 35},
		{100, 50},
	}
	for _, tt := range tests {
		got, ok := Percentile(data, tt.p)
		require.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}

	for _, p := range []float64{-1, 101, math.NaN()} {
		_, ok := Percentile(data, p)
		assert.False(t, ok, "p=%v", p)
	}

	// order of input does not matter
	a, _ := Percentile([]float64{50, 15, 40, 20, 35}, 40)
	assert.InDelta(t, 29.0, a, 1e-12)
}

func TestQuartilesAndIQR(t *testing.T) {
	q, ok := ComputeQuartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.True(t, ok)
	assert.Equal(t, Quartiles{Q1: 3, Q2: 5, Q3: 7}, q)

	iqr, _ := IQR([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.Equal(t, 4.0, iqr)
}

func TestDetectOutliers(t *testing.T) {
	data := []float64{10, 11, 10.5, 9.8, 10.2, 55, 10.1, -30}
	rep, ok := DetectOutliers(data)
	require.True(t, ok)
	assert.Equal(t, []float64{55, -30}, rep.Outliers)
	assert.Less(t, rep.LowerFence, 9.8)
	assert.Greater(t, rep.UpperFence, 11.0)

	rep, _ = DetectOutliers([]float64{1, 1, 1, 1})
	assert.Empty(t, rep.Outliers)
	assert.NotNil(t, rep.Outliers)

	wide, _ := DetectOutliersWithFence(data, 100)
	assert.Empty(t, wide.Outliers)

	_, ok = DetectOutliersWithFence(data, -1)
	assert.False(t, ok)
}

func TestDeviationAndTolerance(t *testing.T) {
	d, ok := Deviation(1150, 1000)
	require.True(t, ok)
	assert.InDelta(t, 15.0, d, 1e-12)

	d, _ = Deviation(950, 1000)
	assert.InDelta(t, -5.0, d, 1e-12)

	_, ok = Deviation(10, 0)
	assert.False(t, ok)

	assert.True(t, IsWithinTolerance(1050, 1000, 5))
	assert.False(t, IsWithinTolerance(1051, 1000, 5))
	assert.False(t, IsWithinTolerance(5, 0, 100))
}

func TestPassRate(t *testing.T) {
	r, ok := PassRate(19, 20)
	require.True(t, ok)
	assert.Equal(t, 95.0, r)

	_, ok = PassRate(0, 0)
	assert.False(t, ok)
}

func TestStatisticalProperties(t *testing.T) {
	samples := [][]float64{
		{1},
		{3, 3, 3},
		{-4, 2.5, 8, 1e-3, 17, -0.25},
		{600, 601.5, 599.2, 650, 598.8, 600.1, 540, 600.4, 600.2},
		{1e6, -1e6, 3, 7, 11},
	}
	for _, xs := range samples {
		sd, _ := StdDev(xs)
		variance, _ := Variance(xs)
		assert.InDelta(t, variance, sd*sd, 1e-6*math.Max(1, variance), "%v", xs)

		lo, _ := Min(xs)
		hi, _ := Max(xs)
		median, _ := Median(xs)
		assert.LessOrEqual(t, lo, median)
		assert.LessOrEqual(t, median, hi)

		p50, _ := Percentile(xs, 50)
		assert.Equal(t, median, p50)

		q, _ := ComputeQuartiles(xs)
		rep, _ := DetectOutliers(xs)
		for _, o := range rep.Outliers {
			assert.False(t, o >= q.Q1 && o <= q.Q3, "%v flagged inside [q1, q3]", o)
		}
	}
}
