// Package preprocess implements feature scaling and train/test splitting.
package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Common errors.
var (
	ErrNotFitted     = errors.New("transformer is not fitted")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Transformer learns parameters from data and applies them.
type Transformer interface {
	// Fit learns parameters necessary for transformation.
	Fit(X mat.Matrix) error

	// Transform transforms data with the fitted parameters.
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform executes Fit and Transform on the same data.
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// MinMaxScaler scales every column independently to [0, 1]:
//
//	v' = (v - min) / (max - min)
//
// where min and max are observed during Fit. Constant columns map to 0.
type MinMaxScaler struct {
	min []float64
	max []float64
}

// NewMinMaxScaler creates an unfitted scaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// RestoreMinMaxScaler rebuilds a fitted scaler from stored column ranges.
func RestoreMinMaxScaler(min, max []float64) (*MinMaxScaler, error) {
	if len(min) != len(max) {
		return nil, fmt.Errorf("%w: %d min values, %d max values", ErrShapeMismatch, len(min), len(max))
	}
	return &MinMaxScaler{
		min: append([]float64(nil), min...),
		max: append([]float64(nil), max...),
	}, nil
}

// Fit records the per-column min and max of X.
func (s *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 {
		return fmt.Errorf("%w: cannot fit on zero rows", ErrShapeMismatch)
	}

	s.min = make([]float64, c)
	s.max = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s.min[j] = floats.Min(col)
		s.max[j] = floats.Max(col)
	}
	return nil
}

// Transform scales X with the fitted ranges.
func (s *MinMaxScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if s.min == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(s.min) {
		return nil, fmt.Errorf("%w: got %d columns, scaler fitted on %d", ErrShapeMismatch, c, len(s.min))
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		span := s.max[j] - s.min[j]
		if span == 0 {
			return 0
		}
		return (v - s.min[j]) / span
	}, X)
	return out, nil
}

// FitTransform fits on X and returns X scaled.
func (s *MinMaxScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps scaled values back to the original ranges.
func (s *MinMaxScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if s.min == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(s.min) {
		return nil, fmt.Errorf("%w: got %d columns, scaler fitted on %d", ErrShapeMismatch, c, len(s.min))
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*(s.max[j]-s.min[j]) + s.min[j]
	}, X)
	return out, nil
}

// Min returns a copy of the fitted column minimums.
func (s *MinMaxScaler) Min() []float64 {
	return append([]float64(nil), s.min...)
}

// Max returns a copy of the fitted column maximums.
func (s *MinMaxScaler) Max() []float64 {
	return append([]float64(nil), s.max...)
}

// FitScope selects which rows the scaler is fitted on.
type FitScope string

const (
	// FitAll fits on every row before the split. Test-set statistics leak
	// into the scaling parameters; this reproduces the reference behaviour.
	FitAll FitScope = "all"

	// FitTrain fits on the training partition only.
	FitTrain FitScope = "train"
)

// ParseFitScope parses "all" or "train".
func ParseFitScope(s string) (FitScope, error) {
	switch FitScope(s) {
	case FitAll, FitTrain:
		return FitScope(s), nil
	default:
		return "", fmt.Errorf("unknown scaler fit scope %q (want %q or %q)", s, FitAll, FitTrain)
	}
}
