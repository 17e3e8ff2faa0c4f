// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/nn"
)

// Parameter represents a trainable parameter and its accumulated gradient.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and value.
func NewParameter(name string, value *mat.Dense) *Parameter {
	return nn.NewParameter(name, value)
}

// CountParameters returns the number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	return nn.CountParameters(params)
}
