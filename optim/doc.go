// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training the classifier.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//   - State interface for optimizers saved inside model files
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ckd/nn"
//	    "github.com/born-ml/ckd/optim"
//	)
//
//	func main() {
//	    model, _ := nn.NewClassifier(nn.DefaultClassifierConfig())
//	    criterion := nn.NewBCELoss()
//
//	    // Create optimizer
//	    optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//
//	    // Training loop
//	    for epoch := range 2000 {
//	        optimizer.ZeroGrad()
//	        probs := model.Forward(x)
//	        loss := criterion.Forward(probs, y)
//	        model.Backward(criterion.Backward(probs, y))
//	        optimizer.Step()
//	    }
//	}
//
// # Optimizers
//
// SGD (Stochastic Gradient Descent):
//
//	optimizer := optim.NewSGD(
//	    model.Parameters(),
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
//
// Adam (Adaptive Moment Estimation):
//
//	optimizer := optim.NewAdam(
//	    model.Parameters(),
//	    optim.AdamConfig{
//	        LR:    0.001,
//	        Betas: [2]float64{0.9, 0.999},
//	        Eps:   1e-7,
//	    },
//	)
package optim
