package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column on its mean and divides by its population std.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column statistics from X. Constant columns get scale 1.
func FitScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, errors.New("fit scaler: no samples")
	}
	width := len(X[0])
	s := &StandardScaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	col := make([]float64, len(X))
	n := float64(len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			if len(row) != width {
				return nil, fmt.Errorf("fit scaler: row %d has %d columns, want %d", i, len(row), width)
			}
			col[i] = row[j]
		}
		mean, variance := stat.MeanVariance(col, nil)
		popVar := 0.0
		if len(X) > 1 {
			popVar = variance * (n - 1) / n
		}
		s.Mean[j] = mean
		s.Scale[j] = math.Sqrt(popVar)
		if s.Scale[j] == 0 || math.IsNaN(s.Scale[j]) {
			s.Scale[j] = 1
		}
	}
	return s, nil
}

// Width is the number of columns the scaler was fit on.
func (s *StandardScaler) Width() int { return len(s.Mean) }

// Transform scales one vector.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler fit on %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row of X.
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		v, err := s.Transform(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
