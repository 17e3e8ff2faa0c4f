// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the network building blocks of the classifier.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations: ReLU, HardSigmoid, Sigmoid
//   - Loss functions: BCELoss
//   - Utilities: Sequential, Module interface, Parameter
//   - Initialization: RandomNormal, GlorotUniform, Zeros
//   - Model files: Checkpoint, LoadCheckpoint
//
// Tensors are gonum *mat.Dense values laid out [batch, features]. Every
// module caches what it needs during Forward and consumes it in Backward.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ckd/nn"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    model, err := nn.NewClassifier(nn.DefaultClassifierConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    probs := model.Predict(mat.NewDense(1, 8, nil))
//	}
//
// # Sequential Models
//
// Build models by composing layers. Initializers draw from one seeded
// stream, so construction order fixes the weights:
//
//	rng := nn.NewRand(13)
//	model := nn.NewSequential(
//	    nn.NewLinear(8, 256, nn.RandomNormal{Std: 0.05}, nn.Zeros{}, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(256, 1, nn.GlorotUniform{}, nn.Zeros{}, rng),
//	    nn.NewHardSigmoid(),
//	)
//
// # Loss Functions
//
// BCELoss: binary cross-entropy on probabilities, clipped to [eps, 1-eps]
//
//	criterion := nn.NewBCELoss()
//	loss := criterion.Forward(probs, targets)
//	grad := criterion.Backward(probs, targets)
//
// # Parameter Management
//
//	for _, p := range model.Parameters() {
//	    r, c := p.Value().Dims()
//	    fmt.Println(p.Name(), r, c)
//	}
package nn
