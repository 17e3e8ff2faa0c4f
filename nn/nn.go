// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ckd/internal/nn"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer.
//
// Example:
//
//	rng := nn.NewRand(13)
//	layer := nn.NewLinear(8, 256, nn.RandomNormal{Std: 0.05}, nn.Zeros{}, rng)
func NewLinear(inFeatures, outFeatures int, kernel, bias Initializer, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, kernel, bias, rng)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation layer.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// HardSigmoid is the piecewise-linear sigmoid clip(0.2x+0.5, 0, 1).
type HardSigmoid = nn.HardSigmoid

// NewHardSigmoid creates a new hard sigmoid activation layer.
func NewHardSigmoid() *HardSigmoid {
	return nn.NewHardSigmoid()
}

// Sigmoid represents the logistic activation function.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a new sigmoid activation layer.
func NewSigmoid() *Sigmoid {
	return nn.NewSigmoid()
}

// NewActivation returns the activation module registered under name
// ("relu", "hard_sigmoid", "sigmoid").
func NewActivation(name string) (Module, error) {
	return nn.NewActivation(name)
}

// Initialization

// Initializer fills a freshly allocated weight matrix.
type Initializer = nn.Initializer

// RandomNormal draws from N(Mean, Std²).
type RandomNormal = nn.RandomNormal

// GlorotUniform draws from U(-limit, limit), limit = sqrt(6 / (in + out)).
type GlorotUniform = nn.GlorotUniform

// Zeros fills with zeros.
type Zeros = nn.Zeros

// NewRand returns the seeded generator initializers draw from.
func NewRand(seed uint64) *rand.Rand {
	return nn.NewRand(seed)
}

// Loss Functions

// BCELoss is binary cross-entropy over probabilities.
type BCELoss = nn.BCELoss

// NewBCELoss creates a new binary cross-entropy loss.
func NewBCELoss() *BCELoss {
	return nn.NewBCELoss()
}

// Metrics

// Threshold maps a probability to a class label: p >= 0.5 → 1, else 0.
func Threshold(p float64) int {
	return nn.Threshold(p)
}

// Labels thresholds every row of [batch, 1] probabilities.
func Labels(probs *mat.Dense) []int {
	return nn.Labels(probs)
}

// BinaryAccuracy returns the fraction of rows whose thresholded prediction
// equals the target.
func BinaryAccuracy(probs *mat.Dense, targets []float64) float64 {
	return nn.BinaryAccuracy(probs, targets)
}

// Models

// ClassifierConfig describes the classifier architecture.
type ClassifierConfig = nn.ClassifierConfig

// Classifier is the two-layer binary classifier.
type Classifier = nn.Classifier

// DefaultClassifierConfig returns the 8→256→1 architecture seeded with 13.
func DefaultClassifierConfig() ClassifierConfig {
	return nn.DefaultClassifierConfig()
}

// NewClassifier builds and initializes a classifier.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	return nn.NewClassifier(cfg)
}

// Checkpoint bundles a classifier with its optimizer and training state.
type Checkpoint = nn.Checkpoint

// OptimizerState is the optimizer side of a checkpoint.
type OptimizerState = nn.OptimizerState

// LoadCheckpoint reads a model file. Optimizer state is restored into
// optimizer when it is non-nil.
//
// Example:
//
//	ckpt, err := nn.LoadCheckpoint("ckd.model", nil)
//	probs := ckpt.Model.Predict(x)
func LoadCheckpoint(path string, optimizer OptimizerState) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, optimizer)
}
