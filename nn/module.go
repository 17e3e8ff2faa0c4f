// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/ckd/internal/nn"
)

// Module is the base interface for all network components.
//
// Every module implements:
//   - Forward: compute output from input, caching what Backward needs
//   - Backward: turn the output gradient into the input gradient and
//     accumulate parameter gradients
//   - Parameters: return all trainable parameters
type Module = nn.Module

// StateModule is a Module whose parameters can be exported and restored.
type StateModule = nn.StateModule

// Sequential chains modules, feeding each output into the next module.
type Sequential = nn.Sequential

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}
