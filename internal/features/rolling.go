package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Window lengths, in rows, for the trailing statistics.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// RollingMean returns the trailing mean over the last window positions of values.
// NaN entries are skipped; a window with no observations yields NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		obs := observed(values, i, window)
		if len(obs) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(obs, nil)
	}
	return out
}

// RollingStd returns the trailing sample standard deviation. Windows with fewer
// than two observations yield NaN.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		obs := observed(values, i, window)
		if len(obs) < 2 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.StdDev(obs, nil)
	}
	return out
}

func observed(values []float64, end, window int) []float64 {
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	obs := make([]float64, 0, window)
	for _, v := range values[start : end+1] {
		if !math.IsNaN(v) {
			obs = append(obs, v)
		}
	}
	return obs
}

// Last returns the final element of a series, or 0 for an empty or NaN tail.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return zeroNaN(series[len(series)-1])
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds half to even at two decimals.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
